package notify

import (
	"context"
	"log"
	"strings"
)

// LogDispatcher records messages instead of sending them. Used when no mail
// credential is configured.
type LogDispatcher struct {
	Logger *log.Logger
}

func (d LogDispatcher) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	d.Logger.Printf("mail disabled, would send %q to %s (invite %d bytes)", msg.Subject, strings.Join(msg.To, ", "), len(msg.Invite))
	return nil
}
