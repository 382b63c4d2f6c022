package directory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// Scopes requested for the delegated service credential.
var Scopes = []string{
	admin.AdminDirectoryResourceCalendarReadonlyScope,
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
	gmail.GmailSendScope,
}

// FetchFunc obtains a brand-new token from the provider.
type FetchFunc func(ctx context.Context) (*oauth2.Token, error)

// TokenCache is a process-wide oauth2.TokenSource. The token is fetched on
// first use and refreshed Margin before it expires; concurrent callers that
// hit an expired token share a single fetch.
type TokenCache struct {
	fetch   FetchFunc
	margin  time.Duration
	timeout time.Duration
	logger  *log.Logger

	mu    sync.RWMutex
	token *oauth2.Token
	group singleflight.Group

	Now func() time.Time
}

func NewTokenCache(fetch FetchFunc, margin, timeout time.Duration, logger *log.Logger) *TokenCache {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenCache{
		fetch:   fetch,
		margin:  margin,
		timeout: timeout,
		logger:  logger,
		Now:     time.Now,
	}
}

// ServiceAccountCredentials builds a TokenCache from a service account key
// file with domain-wide delegation to subject.
func ServiceAccountCredentials(keyPath, subject string, margin, timeout time.Duration, logger *log.Logger) (*TokenCache, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	cfg.Subject = subject

	// A fresh TokenSource per fetch: the one returned by cfg caches internally,
	// which would defeat the refresh margin.
	fetch := func(ctx context.Context) (*oauth2.Token, error) {
		return cfg.TokenSource(ctx).Token()
	}
	return NewTokenCache(fetch, margin, timeout, logger), nil
}

func (c *TokenCache) Token() (*oauth2.Token, error) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if c.fresh(tok) {
		return tok, nil
	}

	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		c.mu.RLock()
		current := c.token
		c.mu.RUnlock()
		if c.fresh(current) {
			return current, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		next, err := c.fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch service token: %w", err)
		}

		c.mu.Lock()
		c.token = next
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Printf("service token refreshed, expires %s", next.Expiry.Format(time.RFC3339))
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (c *TokenCache) fresh(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return c.Now().Add(c.margin).Before(tok.Expiry)
}
