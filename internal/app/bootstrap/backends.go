package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/pantry/db/redis"
	"github.com/dalemusser/inquiry/pantry/email"
	"github.com/dalemusser/inquiry/pantry/health"
	"github.com/dalemusser/inquiry/pantry/mq/rabbitmq"
	"github.com/dalemusser/inquiry/pantry/mq/sqs"
	"go.uber.org/zap"
)

// Backends holds the delivery connections opened at startup. A nil field
// means that backend is not configured.
type Backends struct {
	Mailer    *email.Sender
	AMQP      *rabbitmq.Connection
	Publisher *rabbitmq.Publisher
	SQS       *sqs.Sender
	Redis     *redis.Client
}

// ConnectBackends opens every configured backend. SMTP is dialed per
// message, so only its settings are captured here. On failure everything
// opened so far is closed again.
func ConnectBackends(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (b Backends, err error) {
	defer func() {
		if err != nil {
			CloseBackends(b, logger)
			b = Backends{}
		}
	}()

	if appCfg.EmailEnabled() {
		b.Mailer = email.NewSender(email.Config{
			Host:        appCfg.SMTP.Host,
			Port:        appCfg.SMTP.Port,
			Username:    appCfg.SMTP.Username,
			Password:    appCfg.SMTP.Password,
			FromAddress: appCfg.SMTP.From,
			FromName:    appCfg.SMTP.FromName,
		}, logger)
		logger.Info("email sink configured",
			zap.String("smtp_host", appCfg.SMTP.Host),
			zap.Int("smtp_port", appCfg.SMTP.Port),
			zap.Int("recipients", len(appCfg.SMTP.NotifyTo)))
	}

	if appCfg.AMQPURL != "" {
		b.AMQP, err = rabbitmq.Connect(ctx, appCfg.AMQPURL)
		if err != nil {
			return b, err
		}
		b.Publisher, err = rabbitmq.NewPublisher(b.AMQP, appCfg.AMQPQueue)
		if err != nil {
			return b, err
		}
		logger.Info("connected to RabbitMQ", zap.String("queue", appCfg.AMQPQueue))
	}

	if appCfg.SQSQueueURL != "" {
		client, cerr := sqs.Connect(ctx, sqs.Options{
			Region:    appCfg.SQSRegion,
			Endpoint:  appCfg.SQSEndpoint,
			AccessKey: appCfg.SQSAccessKey,
			SecretKey: appCfg.SQSSecretKey,
		})
		if cerr != nil {
			return b, fmt.Errorf("sqs: %w", cerr)
		}
		b.SQS, err = sqs.NewSender(client, appCfg.SQSQueueURL)
		if err != nil {
			return b, err
		}
		logger.Info("SQS sink configured", zap.String("queue_url", appCfg.SQSQueueURL))
	}

	if appCfg.RedisURL != "" {
		b.Redis, err = redis.ConnectURL(ctx, appCfg.RedisURL)
		if err != nil {
			return b, err
		}
		logger.Info("connected to Redis for rate limiting")
	}

	return b, nil
}

// CloseBackends closes whatever ConnectBackends opened.
func CloseBackends(b Backends, logger *zap.Logger) {
	if b.Publisher != nil {
		if err := b.Publisher.Close(); err != nil {
			logger.Warn("close AMQP channel", zap.Error(err))
		}
	}
	if b.AMQP != nil {
		if err := b.AMQP.Close(); err != nil {
			logger.Warn("close AMQP connection", zap.Error(err))
		}
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			logger.Warn("close Redis client", zap.Error(err))
		}
	}
}

// HealthChecks returns one readiness check per connected backend.
func (b Backends) HealthChecks() map[string]health.Check {
	checks := make(map[string]health.Check)
	if b.AMQP != nil {
		checks["amqp"] = rabbitmq.HealthCheck(b.AMQP)
	}
	if b.SQS != nil {
		checks["sqs"] = b.SQS.HealthCheck()
	}
	if b.Redis != nil {
		checks["redis"] = redis.HealthCheck(b.Redis)
	}
	return checks
}
