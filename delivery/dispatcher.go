package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/inquiry/metrics"
	"go.uber.org/zap"
)

// ErrUndelivered is returned when every required sink failed.
var ErrUndelivered = errors.New("delivery: no required sink accepted the inquiry")

// Result lists what happened to one inquiry.
type Result struct {
	Delivered []string
	Failed    map[string]error
}

type registered struct {
	sink     Sink
	required bool
}

// Dispatcher delivers each inquiry to its sinks one after another, in the
// order they were added. It is safe for concurrent use once built.
type Dispatcher struct {
	sinks   []registered
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSinkTimeout bounds each sink call. Zero leaves only the caller's ctx.
func WithSinkTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.timeout = d }
}

// WithLogger sets the logger for delivery failures.
func WithLogger(logger *zap.Logger) Option {
	return func(dp *Dispatcher) {
		if logger != nil {
			dp.logger = logger
		}
	}
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add registers a required sink.
func (d *Dispatcher) Add(s Sink) *Dispatcher {
	d.sinks = append(d.sinks, registered{sink: s, required: true})
	return d
}

// AddOptional registers a sink whose failure never fails the inquiry.
func (d *Dispatcher) AddOptional(s Sink) *Dispatcher {
	d.sinks = append(d.sinks, registered{sink: s})
	return d
}

// Sinks returns the registered sink names in delivery order.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, r := range d.sinks {
		names[i] = r.sink.Name()
	}
	return names
}

// Dispatch delivers inq to every sink. It returns ErrUndelivered only when
// at least one required sink exists and all of them failed; partial
// failures are reported in the Result and the log.
func (d *Dispatcher) Dispatch(ctx context.Context, inq Inquiry) (Result, error) {
	res := Result{Failed: map[string]error{}}
	var required, requiredOK int

	for _, r := range d.sinks {
		name := r.sink.Name()
		err := d.deliver(ctx, r.sink, inq)
		metrics.ObserveDelivery(name, err)

		if r.required {
			required++
		}
		if err != nil {
			res.Failed[name] = err
			d.logger.Error("inquiry delivery failed",
				zap.String("sink", name),
				zap.Bool("required", r.required),
				zap.String("inquiry_id", inq.ID),
				zap.Error(err))
			continue
		}
		res.Delivered = append(res.Delivered, name)
		if r.required {
			requiredOK++
		}
	}

	if required > 0 && requiredOK == 0 {
		return res, ErrUndelivered
	}
	return res, nil
}

func (d *Dispatcher) deliver(ctx context.Context, s Sink, inq Inquiry) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return s.Deliver(ctx, inq)
}
