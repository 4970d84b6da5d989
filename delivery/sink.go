package delivery

import (
	"context"
	"time"

	"github.com/dalemusser/inquiry/logging"
	"go.uber.org/zap"
)

// Sink receives accepted inquiries.
type Sink interface {
	// Name labels the sink in logs and metrics, e.g. "email".
	Name() string
	Deliver(ctx context.Context, inq Inquiry) error
}

// LogSink writes a structured log line per inquiry. The address is
// redacted and the message body is reduced to its length.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a LogSink writing to logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, inq Inquiry) error {
	s.logger.Info("inquiry received",
		zap.String("inquiry_id", inq.ID),
		zap.String("name", inq.Name),
		zap.String("email", logging.RedactEmail(inq.Email)),
		zap.Int("message_len", len(inq.Message)),
		zap.String("remote_ip", inq.RemoteIP),
		zap.String("request_id", inq.RequestID),
		zap.Time("received_at", inq.ReceivedAt.UTC().Truncate(time.Second)),
	)
	return nil
}
