// Package delivery hands accepted contact inquiries to the places that act
// on them: a notification mailbox, a message queue, the log. Nothing here
// stores an inquiry; each sink either accepts the hand-off or fails.
package delivery

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dalemusser/inquiry/contact"
)

// Inquiry is an accepted Submission plus the request metadata the service
// attaches to it.
type Inquiry struct {
	ID string `json:"id"`
	contact.Submission
	ReceivedAt time.Time `json:"received_at"`
	RemoteIP   string    `json:"remote_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

// JSON is the wire form used by queue sinks. HTML characters in the
// message are left unescaped.
func (i Inquiry) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(i); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
