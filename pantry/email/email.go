// pantry/email/email.go
// Package email sends SMTP mail through github.com/wneessen/go-mail with
// the defaults a small service needs for notification mail.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds SMTP server configuration.
type Config struct {
	// Host is the SMTP server hostname, e.g. "email-smtp.us-east-1.amazonaws.com".
	Host string

	// Port defaults to 587 (STARTTLS); 465 implies implicit TLS.
	Port int

	Username string
	Password string

	// FromAddress and the optional FromName form the sender.
	FromAddress string
	FromName    string

	// UseTLS requires STARTTLS. It is forced on unless UseSSL is set or
	// the port is 465.
	UseTLS bool

	// UseSSL enables implicit TLS.
	UseSSL bool

	// Timeout for the SMTP conversation (default 30s).
	Timeout time.Duration
}

// Message is one email.
type Message struct {
	To       []string
	Subject  string
	TextBody string // at least one of TextBody and HTMLBody is required
	HTMLBody string
	ReplyTo  string
}

var (
	ErrNoRecipients = errors.New("email: no recipients specified")
	ErrEmptyBody    = errors.New("email: message body is empty")
)

// Sender sends mail through the configured SMTP server. It dials once per
// message.
type Sender struct {
	cfg    Config
	logger *zap.Logger
}

// NewSender applies defaults to cfg and returns a Sender.
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Port == 465 {
		cfg.UseSSL = true
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if !cfg.UseSSL {
		cfg.UseTLS = true
	}
	return &Sender{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (s *Sender) Config() Config { return s.cfg }

// Send dials the server and delivers msg.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	m, err := s.buildMsg(msg)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

func (s *Sender) buildMsg(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, ErrEmptyBody
	}

	m := mail.NewMsg()
	var err error
	if s.cfg.FromName != "" {
		err = m.FromFormat(s.cfg.FromName, s.cfg.FromAddress)
	} else {
		err = m.From(s.cfg.FromAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}
	// Reply-To is a convenience: an address the mail header parser rejects
	// is left out instead of failing the message.
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			s.logger.Warn("reply-to address not usable; sending without it", zap.Error(err))
		}
	}
	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}

func (s *Sender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	return opts
}
