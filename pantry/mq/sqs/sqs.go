// mq/sqs/sqs.go
package sqs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Options selects the region, endpoint and credentials for Connect.
type Options struct {
	Region string

	// Endpoint overrides the SQS endpoint for LocalStack, ElasticMQ or other
	// SQS-compatible services.
	Endpoint string

	// AccessKey and SecretKey set static credentials. Empty uses the default
	// AWS credential chain (env, shared config, IAM role).
	AccessKey string
	SecretKey string
}

// Connect loads AWS configuration and returns an SQS client. ctx bounds
// configuration loading.
func Connect(ctx context.Context, opts Options) (*sqs.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// API is the subset of *sqs.Client the Sender uses.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// MessageGroup is the FIFO message group used for every message.
const MessageGroup = "inquiry"

// Sender sends JSON messages to one queue. FIFO queues (URL ending in
// ".fifo") get MessageGroup and the caller's id as deduplication id.
type Sender struct {
	api      API
	queueURL string
	fifo     bool
}

// NewSender returns a Sender for queueURL.
func NewSender(api API, queueURL string) (*Sender, error) {
	if api == nil {
		return nil, errors.New("sqs: nil client")
	}
	if queueURL == "" {
		return nil, errors.New("sqs: queue URL is required")
	}
	return &Sender{api: api, queueURL: queueURL, fifo: strings.HasSuffix(queueURL, ".fifo")}, nil
}

// QueueURL returns the target queue.
func (s *Sender) QueueURL() string { return s.queueURL }

// SendJSON sends body with a content-type attribute and returns the SQS
// message id.
func (s *Sender) SendJSON(ctx context.Context, id string, body []byte) (string, error) {
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"content-type": {
				DataType:    aws.String("String"),
				StringValue: aws.String("application/json"),
			},
		},
	}
	if s.fifo {
		in.MessageGroupId = aws.String(MessageGroup)
		in.MessageDeduplicationId = aws.String(id)
	}

	out, err := s.api.SendMessage(ctx, in)
	if err != nil {
		return "", fmt.Errorf("sqs: send message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// HealthCheck verifies the queue is reachable by reading one attribute.
func (s *Sender) HealthCheck() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       aws.String(s.queueURL),
			AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
		})
		return err
	}
}
