package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/contact"
)

// Keys are the inquiry settings loaded alongside the core config. Every key
// is also a flag (--smtp_host) and an env var (INQUIRY_SMTP_HOST).
var Keys = []config.AppKey{
	{Name: "site_title", Default: "Contact", Desc: "Heading of the contact page"},

	{Name: "smtp_host", Default: "", Desc: "SMTP server; empty disables email notification"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP port (465 for implicit TLS)"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password"},
	{Name: "smtp_from", Default: "", Desc: "Sender address of notification mail"},
	{Name: "smtp_from_name", Default: "Inquiry", Desc: "Sender display name"},
	{Name: "notify_to", Default: []string{}, Desc: "Recipients of notification mail"},
	{Name: "subject_prefix", Default: "[inquiry]", Desc: "Subject prefix of notification mail"},

	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL; empty disables the AMQP sink"},
	{Name: "amqp_queue", Default: "inquiries", Desc: "RabbitMQ queue for inquiries"},

	{Name: "sqs_queue_url", Default: "", Desc: "SQS queue URL; empty disables the SQS sink"},
	{Name: "sqs_region", Default: "us-east-1", Desc: "AWS region of the SQS queue"},
	{Name: "sqs_endpoint", Default: "", Desc: "SQS endpoint override (LocalStack, ElasticMQ)"},
	{Name: "sqs_access_key", Default: "", Desc: "Static AWS access key; empty uses the default chain"},
	{Name: "sqs_secret_key", Default: "", Desc: "Static AWS secret key"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for a rate limit shared across instances"},
	{Name: "rate_limit_per_minute", Default: 5, Desc: "Submissions per client IP per minute; 0 disables"},
	{Name: "rate_limit_burst", Default: 3, Desc: "Submissions a client may send at once"},

	{Name: "sink_timeout", Default: "10s", Desc: "Timeout of each delivery sink"},

	{Name: "admin_api_key", Default: "", Desc: "API key guarding /debug/pprof; empty leaves profiling unmounted"},
}

// SMTPConfig is the notification mail setup.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	FromName      string
	NotifyTo      []string
	SubjectPrefix string
}

// AppConfig holds the inquiry service settings.
type AppConfig struct {
	SiteTitle string

	SMTP SMTPConfig

	AMQPURL   string
	AMQPQueue string

	SQSQueueURL  string
	SQSRegion    string
	SQSEndpoint  string
	SQSAccessKey string
	SQSSecretKey string

	RedisURL string

	RateLimitPerMinute int
	RateLimitBurst     int

	SinkTimeout time.Duration

	AdminAPIKey string
}

// EmailEnabled reports whether notification mail is configured.
func (c AppConfig) EmailEnabled() bool { return c.SMTP.Host != "" }

// RateLimited reports whether submissions are rate limited.
func (c AppConfig) RateLimited() bool { return c.RateLimitPerMinute > 0 }

func appConfigFrom(vals config.AppConfigValues) (AppConfig, error) {
	cfg := AppConfig{
		SiteTitle: strings.TrimSpace(vals.String("site_title")),
		SMTP: SMTPConfig{
			Host:          strings.TrimSpace(vals.String("smtp_host")),
			Port:          vals.Int("smtp_port"),
			Username:      vals.String("smtp_username"),
			Password:      vals.String("smtp_password"),
			From:          strings.TrimSpace(vals.String("smtp_from")),
			FromName:      vals.String("smtp_from_name"),
			NotifyTo:      vals.StringSlice("notify_to"),
			SubjectPrefix: vals.String("subject_prefix"),
		},
		AMQPURL:            strings.TrimSpace(vals.String("amqp_url")),
		AMQPQueue:          strings.TrimSpace(vals.String("amqp_queue")),
		SQSQueueURL:        strings.TrimSpace(vals.String("sqs_queue_url")),
		SQSRegion:          strings.TrimSpace(vals.String("sqs_region")),
		SQSEndpoint:        strings.TrimSpace(vals.String("sqs_endpoint")),
		SQSAccessKey:       vals.String("sqs_access_key"),
		SQSSecretKey:       vals.String("sqs_secret_key"),
		RedisURL:           strings.TrimSpace(vals.String("redis_url")),
		RateLimitPerMinute: vals.Int("rate_limit_per_minute"),
		RateLimitBurst:     vals.Int("rate_limit_burst"),
		SinkTimeout:        vals.Duration("sink_timeout", 10*time.Second),
		AdminAPIKey:        strings.TrimSpace(vals.String("admin_api_key")),
	}
	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	var missing []string
	var invalid []string

	if c.EmailEnabled() {
		if c.SMTP.From == "" {
			missing = append(missing, "INQUIRY_SMTP_FROM (or --smtp_from) when smtp_host is set")
		} else if !contact.ValidEmail(c.SMTP.From) {
			invalid = append(invalid, "smtp_from must be an email address")
		}
		if len(c.SMTP.NotifyTo) == 0 {
			missing = append(missing, "INQUIRY_NOTIFY_TO (or --notify_to) when smtp_host is set")
		}
		for _, to := range c.SMTP.NotifyTo {
			if !contact.ValidEmail(to) {
				invalid = append(invalid, fmt.Sprintf("notify_to entry %q is not an email address", to))
			}
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			invalid = append(invalid, "smtp_port must be in 1..65535")
		}
	}
	if c.AMQPURL != "" && c.AMQPQueue == "" {
		missing = append(missing, "INQUIRY_AMQP_QUEUE (or --amqp_queue) when amqp_url is set")
	}
	if c.SQSQueueURL != "" && c.SQSRegion == "" {
		missing = append(missing, "INQUIRY_SQS_REGION (or --sqs_region) when sqs_queue_url is set")
	}
	if (c.SQSAccessKey == "") != (c.SQSSecretKey == "") {
		invalid = append(invalid, "sqs_access_key and sqs_secret_key must be set together")
	}
	if c.RateLimitPerMinute < 0 {
		invalid = append(invalid, "rate_limit_per_minute must be >= 0")
	}
	if c.RateLimited() && c.RateLimitBurst < 1 {
		invalid = append(invalid, "rate_limit_burst must be >= 1 when rate limiting is enabled")
	}
	if c.SinkTimeout <= 0 {
		invalid = append(invalid, "sink_timeout must be positive")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("app configuration errors: %s", strings.Join(parts, " | "))
}
