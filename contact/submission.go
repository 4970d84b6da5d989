// Package contact holds the contact-form core: the Submission a visitor
// sends, the validator that guards the network boundary, and the Form state
// machine that drives one submission attempt at a time.
package contact

import (
	"errors"
	"regexp"
)

// Field names as they appear on the rendered form and in the JSON body.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

// space is every character a browser treats as whitespace in a pattern:
// ASCII space and controls, vertical tab, Unicode space separators, line
// and paragraph separators, and the byte order mark.
const space = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// emailPattern requires one "@", at least one "." after it, and no whitespace.
var emailPattern = regexp.MustCompile(`^[^` + space + `@]+@[^` + space + `@]+\.[^` + space + `@]+$`)

// Submission is a single contact inquiry. It is built from form values at
// submit time and discarded once the submission call settles.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate checks the submission with the package validator.
func (s Submission) Validate() error {
	return Validate(s.Name, s.Email, s.Message)
}

// Ack is what the submission endpoint returns for an accepted inquiry.
// A zero Ack is valid: endpoints may answer 2xx with an empty body.
type Ack struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
}

// ValidationKind distinguishes the two validation failures.
type ValidationKind int

const (
	MissingField ValidationKind = iota + 1
	InvalidEmail
)

func (k ValidationKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case InvalidEmail:
		return "invalid_email"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against a *ValidationError.
var (
	ErrMissingField = errors.New("contact: missing field")
	ErrInvalidEmail = errors.New("contact: invalid email")
)

// ValidationError reports why a submission was rejected before any network
// call. Field names the first offending input.
type ValidationError struct {
	Kind  ValidationKind
	Field string
}

func (e *ValidationError) Error() string {
	return "contact: " + e.Kind.String() + " (" + e.Field + ")"
}

// Is matches the kind sentinels.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Kind == MissingField
	case ErrInvalidEmail:
		return e.Kind == InvalidEmail
	}
	return false
}

// Message is the text shown to the visitor for this failure.
func (e *ValidationError) Message() string {
	if e.Kind == InvalidEmail {
		return MsgInvalidEmail
	}
	return MsgMissingField
}

// Validate reports whether name, email and message form an acceptable
// submission. Values are not trimmed: whitespace-only counts as present.
// Presence is checked for all three fields before the email pattern.
func Validate(name, email, message string) error {
	for _, f := range [...]struct{ field, value string }{
		{FieldName, name},
		{FieldEmail, email},
		{FieldMessage, message},
	} {
		if f.value == "" {
			return &ValidationError{Kind: MissingField, Field: f.field}
		}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Kind: InvalidEmail, Field: FieldEmail}
	}
	return nil
}

// ValidEmail reports whether s matches the email pattern used by Validate.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
