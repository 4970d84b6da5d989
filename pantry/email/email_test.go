package email

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSender_Defaults(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com"}, nil)
	cfg := s.Config()
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.UseTLS)
	assert.False(t, cfg.UseSSL)

	cfg = NewSender(Config{Host: "smtp.example.com", Port: 465}, nil).Config()
	assert.True(t, cfg.UseSSL)
	assert.False(t, cfg.UseTLS)
}

func TestSend_Validation(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", FromAddress: "site@example.com"}, nil)

	err := s.Send(context.Background(), Message{Subject: "x", TextBody: "y"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	err = s.Send(context.Background(), Message{To: []string{"ops@example.com"}})
	assert.ErrorIs(t, err, ErrEmptyBody)

	err = s.Send(context.Background(), Message{To: []string{"not an address"}, TextBody: "y"})
	assert.ErrorContains(t, err, "invalid to address")
}

func TestBuildMsg(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", FromAddress: "site@example.com", FromName: "Site"}, nil)

	m, err := s.buildMsg(Message{
		To:       []string{"ops@example.com"},
		Subject:  "New inquiry from Alice",
		TextBody: "Hi",
		HTMLBody: "<p>Hi</p>",
		ReplyTo:  "alice@example.com",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Subject: New inquiry from Alice")
	assert.Contains(t, out, "Reply-To:")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "site@example.com")
	assert.Contains(t, out, "text/html")
}

func TestBuildMsg_UnparsableReplyToIsDropped(t *testing.T) {
	for _, replyTo := range []string{
		"a,b@example.com",
		"a<b@example.com",
		"a(b@example.com",
		`"x@example.com`,
	} {
		t.Run(replyTo, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			s := NewSender(Config{Host: "smtp.example.com", FromAddress: "site@example.com"}, zap.New(core))

			m, err := s.buildMsg(Message{
				To:       []string{"ops@example.com"},
				Subject:  "New inquiry",
				TextBody: "From: " + replyTo,
				ReplyTo:  replyTo,
			})
			require.NoError(t, err)

			var buf bytes.Buffer
			_, err = m.WriteTo(&buf)
			require.NoError(t, err)
			assert.NotContains(t, buf.String(), "Reply-To:")
			assert.Equal(t, 1, logs.Len())
		})
	}
}
