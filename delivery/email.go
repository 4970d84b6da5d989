package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"unicode"

	"github.com/dalemusser/inquiry/pantry/email"
)

// Mailer is satisfied by *email.Sender.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

const textNotice = `New inquiry {{.ID}}

From:    {{.Name}} <{{.Email}}>
Received: {{.ReceivedAt.UTC.Format "2006-01-02 15:04:05 MST"}}

{{.Message}}
`

const htmlNotice = `<p><strong>New inquiry</strong> {{.ID}}</p>
<p>From: {{.Name}} &lt;<a href="mailto:{{.Email}}">{{.Email}}</a>&gt;<br>
Received: {{.ReceivedAt.UTC.Format "2006-01-02 15:04:05 MST"}}</p>
<pre style="white-space: pre-wrap">{{.Message}}</pre>
`

var (
	textTpl = texttemplate.Must(texttemplate.New("notice.txt").Parse(textNotice))
	htmlTpl = htmltemplate.Must(htmltemplate.New("notice.html").Parse(htmlNotice))
)

// EmailSink mails a notification to the site owner with Reply-To set to
// the visitor, so answering the notification answers the inquiry.
type EmailSink struct {
	mailer        Mailer
	to            []string
	subjectPrefix string
}

// NewEmailSink notifies the addresses in to. subjectPrefix defaults to
// "[inquiry]".
func NewEmailSink(mailer Mailer, to []string, subjectPrefix string) (*EmailSink, error) {
	if len(to) == 0 {
		return nil, errors.New("delivery: email sink needs at least one recipient")
	}
	if subjectPrefix == "" {
		subjectPrefix = "[inquiry]"
	}
	return &EmailSink{mailer: mailer, to: to, subjectPrefix: subjectPrefix}, nil
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, inq Inquiry) error {
	var text, html bytes.Buffer
	if err := textTpl.Execute(&text, inq); err != nil {
		return fmt.Errorf("render text notice: %w", err)
	}
	if err := htmlTpl.Execute(&html, inq); err != nil {
		return fmt.Errorf("render html notice: %w", err)
	}

	return s.mailer.Send(ctx, email.Message{
		To:       s.to,
		Subject:  s.subjectPrefix + " New message from " + headerSafe(inq.Name),
		TextBody: text.String(),
		HTMLBody: html.String(),
		ReplyTo:  inq.Email,
	})
}

// headerSafe replaces control characters, CR and LF among them, with
// spaces so visitor input cannot start a new header line.
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '\u2028' || r == '\u2029' {
			return ' '
		}
		return r
	}, s)
}
