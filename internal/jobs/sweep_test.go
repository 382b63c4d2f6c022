package jobs

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"interview-scheduler/internal/slots"
)

type fakePurger struct {
	before time.Time
	n      int64
	err    error
}

func (f *fakePurger) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.n, f.err
}

func TestSweepUsesGrace(t *testing.T) {
	now := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	p := &fakePurger{n: 2}
	s := NewSweeper(p, 24*time.Hour, log.New(io.Discard, "", 0))
	s.Now = func() time.Time { return now }

	n, err := s.Run(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("run: %d %v", n, err)
	}
	if !p.before.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", p.before)
	}

	p.err = errors.New("db down")
	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSweepAgainstManager(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	m := slots.NewManager(slots.NewMemoryStore(), logger)
	now := time.Now().UTC()
	m.Now = func() time.Time { return now.Add(-72 * time.Hour) }

	old := now.Add(-48 * time.Hour)
	if _, err := m.Propose(context.Background(), slots.Proposal{Slots: []slots.NewSlot{
		{StartTime: old, EndTime: old.Add(time.Hour), MeetingType: slots.MeetingOnline},
		{StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), MeetingType: slots.MeetingOnline},
	}}); err != nil {
		t.Fatalf("propose: %v", err)
	}

	n, err := NewSweeper(m, 24*time.Hour, logger).Run(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one purged slot, got %d %v", n, err)
	}
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	s := NewSweeper(&fakePurger{}, time.Hour, log.New(io.Discard, "", 0))
	if _, err := s.Schedule("not a cron"); err == nil {
		t.Fatal("expected parse error")
	}
	c, err := s.Schedule("@every 1h")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("expected one entry, got %d", len(c.Entries()))
	}
}
