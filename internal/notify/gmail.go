package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailDispatcher sends through the Gmail API as the delegated user that
// owns the service credential.
type GmailDispatcher struct {
	srv     *gmail.Service
	timeout time.Duration
	logger  *log.Logger

	Now func() time.Time
}

func NewGmailDispatcher(ctx context.Context, timeout time.Duration, logger *log.Logger, opts ...option.ClientOption) (*GmailDispatcher, error) {
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GmailDispatcher{srv: srv, timeout: timeout, logger: logger, Now: time.Now}, nil
}

func (g *GmailDispatcher) Send(ctx context.Context, msg Message) error {
	raw, err := BuildMIME(msg, g.Now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	sent, err := g.srv.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	g.logger.Printf("invite mailed to %d recipient(s) id=%s", len(msg.To), sent.Id)
	return nil
}
