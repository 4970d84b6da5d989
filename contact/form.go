package contact

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Text shown to the visitor.
const (
	MsgMissingField = "All fields are required."
	MsgInvalidEmail = "Invalid email address."
	MsgSuccess      = "Message sent successfully!"
	MsgFailure      = "Error sending message, try reaching out on social media."
)

// ErrFormLocked is returned when Submit or Reset is called in a state that
// does not accept it. No network call is made.
var ErrFormLocked = errors.New("contact: form is locked")

// State is the form's position in Idle -> Submitting -> Resolved.
// Succeeded and Failed are the two Resolved outcomes.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Resolved reports whether the submission attempt has settled.
func (s State) Resolved() bool {
	return s == StateSucceeded || s == StateFailed
}

// Fields is a name-keyed lookup of the form's current input values.
// url.Values satisfies it.
type Fields interface {
	Get(name string) string
}

// FieldMap is a Fields backed by a plain map.
type FieldMap map[string]string

// Get returns the value for name, or "" if absent.
func (m FieldMap) Get(name string) string { return m[name] }

// Submitter performs the single network call for a validated submission.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Ack, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, s Submission) (Ack, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, s Submission) (Ack, error) {
	return f(ctx, s)
}

// SubmissionError wraps any failure from the Submitter. Its text is the
// generic visitor message; the cause is kept for logs.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return "contact: submission failed"
	}
	return "contact: submission failed: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// View is a render snapshot. Error and Success are never both set.
type View struct {
	State    State  `json:"state" yaml:"state"`
	Disabled bool   `json:"disabled" yaml:"disabled"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Success  string `json:"success,omitempty" yaml:"success,omitempty"`
	AckID    string `json:"ack_id,omitempty" yaml:"ack_id,omitempty"`
}

// Form owns one contact form instance and its submission lifecycle.
type Form struct {
	submitter Submitter
	logger    *zap.Logger
	observers []func(View)

	mu     sync.Mutex
	state  State
	notice string // validation message while Idle
	ack    Ack
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithLogger sets the logger used for submission outcomes.
func WithLogger(logger *zap.Logger) FormOption {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithObserver registers fn to be called with the new View after every
// transition. Observers run synchronously on the goroutine that caused the
// transition and must not call back into the Form.
func WithObserver(fn func(View)) FormOption {
	return func(f *Form) {
		if fn != nil {
			f.observers = append(f.observers, fn)
		}
	}
}

// NewForm returns an Idle form that submits through s.
func NewForm(s Submitter, opts ...FormOption) *Form {
	f := &Form{
		submitter: s,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit reads name, email and message from fields, validates them and, if
// valid, performs exactly one submission call.
//
// It returns a *ValidationError (form stays Idle), a *SubmissionError (form
// ends Failed), ErrFormLocked (form was not Idle), or nil (form ends
// Succeeded).
func (f *Form) Submit(ctx context.Context, fields Fields) error {
	sub := Submission{
		Name:    fields.Get(FieldName),
		Email:   fields.Get(FieldEmail),
		Message: fields.Get(FieldMessage),
	}

	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return ErrFormLocked
	}
	if err := sub.Validate(); err != nil {
		var ve *ValidationError
		errors.As(err, &ve)
		f.notice = ve.Message()
		v := f.viewLocked()
		f.mu.Unlock()
		f.notify(v)
		return err
	}
	f.state = StateSubmitting
	f.notice = ""
	f.ack = Ack{}
	v := f.viewLocked()
	f.mu.Unlock()
	f.notify(v)

	ack, err := f.call(ctx, sub)

	f.mu.Lock()
	if err != nil {
		f.state = StateFailed
	} else {
		f.state = StateSucceeded
		f.ack = ack
	}
	v = f.viewLocked()
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("contact submission failed", zap.Error(err))
		f.notify(v)
		return &SubmissionError{Err: err}
	}
	f.logger.Info("contact submission sent", zap.String("ack_id", ack.ID))
	f.notify(v)
	return nil
}

// call runs the submitter. A panic leaves the form Failed before it
// propagates, so the form never stays Submitting.
func (f *Form) call(ctx context.Context, sub Submission) (Ack, error) {
	defer func() {
		if r := recover(); r != nil {
			f.mu.Lock()
			f.state = StateFailed
			v := f.viewLocked()
			f.mu.Unlock()
			f.notify(v)
			panic(r)
		}
	}()
	return f.submitter.Submit(ctx, sub)
}

// Reset returns a settled or Idle form to Idle and clears any message.
// It returns ErrFormLocked while a submission is in flight.
func (f *Form) Reset() error {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrFormLocked
	}
	f.state = StateIdle
	f.notice = ""
	f.ack = Ack{}
	v := f.viewLocked()
	f.mu.Unlock()
	f.notify(v)
	return nil
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// View returns the current render snapshot.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Form) viewLocked() View {
	v := View{
		State:    f.state,
		Disabled: f.state != StateIdle,
	}
	switch f.state {
	case StateIdle:
		v.Error = f.notice
	case StateSucceeded:
		v.Success = MsgSuccess
		v.AckID = f.ack.ID
	case StateFailed:
		v.Error = MsgFailure
	}
	return v
}

func (f *Form) notify(v View) {
	for _, fn := range f.observers {
		fn(v)
	}
}
