// Package notify delivers booking invitations by e-mail.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// calendarRequest is the inline part mail clients turn into accept/decline
// controls.
const calendarRequest = mail.ContentType("text/calendar; method=REQUEST")

// Dispatcher sends a message. Callers treat failures as non-fatal.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a booking notification. Invite holds an iCalendar REQUEST and
// may be empty.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
	Invite  []byte
}

func (m Message) validate() error {
	if m.From == "" {
		return fmt.Errorf("message has no sender")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	return nil
}

// BuildMIME renders msg as an RFC 5322 message. The invite is carried twice:
// inline as text/calendar inside multipart/alternative so mail clients show
// accept/decline controls, and as an invite.ics attachment.
func BuildMIME(msg Message, date time.Time) ([]byte, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(date)

	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	if len(msg.Invite) > 0 {
		m.AddAlternativeString(calendarRequest, string(msg.Invite), mail.WithPartEncoding(mail.EncodingB64))
		if err := m.AttachReader("invite.ics", bytes.NewReader(msg.Invite),
			mail.WithFileContentType(mail.ContentType("application/ics"))); err != nil {
			return nil, fmt.Errorf("attach invite: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	return buf.Bytes(), nil
}
