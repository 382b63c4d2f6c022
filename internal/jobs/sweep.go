// Package jobs holds periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger deletes open slots that ended before the cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper removes stale open slots so they stop showing up in booking views
// and admin listings.
type Sweeper struct {
	purger  Purger
	grace   time.Duration
	timeout time.Duration
	logger  *log.Logger

	Now func() time.Time
}

func NewSweeper(purger Purger, grace time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{purger: purger, grace: grace, timeout: time.Minute, logger: logger, Now: time.Now}
}

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cutoff := s.Now().UTC().Add(-s.grace)
	n, err := s.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep expired slots: %w", err)
	}
	if n > 0 {
		s.logger.Printf("sweep removed %d expired open slot(s) ending before %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// Schedule registers the sweep on a new cron runner. The caller starts and
// stops it.
func (s *Sweeper) Schedule(expr string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.logger.Printf("Error running sweep: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("SWEEP_CRON %q: %w", expr, err)
	}
	return c, nil
}
