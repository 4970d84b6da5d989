package delivery

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Publisher is satisfied by *rabbitmq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, messageID string, body []byte) error
}

// AMQPSink publishes the inquiry JSON to a RabbitMQ queue.
type AMQPSink struct {
	pub Publisher
}

// NewAMQPSink returns a sink publishing through pub.
func NewAMQPSink(pub Publisher) *AMQPSink {
	return &AMQPSink{pub: pub}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Deliver(ctx context.Context, inq Inquiry) error {
	body, err := inq.JSON()
	if err != nil {
		return fmt.Errorf("encode inquiry: %w", err)
	}
	return s.pub.PublishJSON(ctx, inq.ID, body)
}

// QueueSender is satisfied by *sqs.Sender.
type QueueSender interface {
	SendJSON(ctx context.Context, id string, body []byte) (string, error)
}

// SQSSink sends the inquiry JSON to an SQS queue.
type SQSSink struct {
	sender QueueSender
	logger *zap.Logger
}

// NewSQSSink returns a sink sending through sender.
func NewSQSSink(sender QueueSender, logger *zap.Logger) *SQSSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSSink{sender: sender, logger: logger}
}

func (s *SQSSink) Name() string { return "sqs" }

func (s *SQSSink) Deliver(ctx context.Context, inq Inquiry) error {
	body, err := inq.JSON()
	if err != nil {
		return fmt.Errorf("encode inquiry: %w", err)
	}
	msgID, err := s.sender.SendJSON(ctx, inq.ID, body)
	if err != nil {
		return err
	}
	s.logger.Debug("inquiry queued",
		zap.String("inquiry_id", inq.ID),
		zap.String("sqs_message_id", msgID))
	return nil
}
