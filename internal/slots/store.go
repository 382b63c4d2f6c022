package slots

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// PersistenceError wraps a backing store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("slot store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Store is the persistence contract for slots. ClaimOpen must be a single
// conditional write: it succeeds only while the row is open and either
// public or scoped to claim.CandidateRef.
type Store interface {
	Insert(ctx context.Context, slots []Slot) error
	Get(ctx context.Context, id string) (Slot, error)
	ListOpen(ctx context.Context, candidateRef string, after time.Time) ([]Slot, error)
	ClaimOpen(ctx context.Context, id string, claim Claim) (Slot, error)
	AttachMeeting(ctx context.Context, id, joinURL string, room *RoomRef) error
	DeleteOpen(ctx context.Context, id string) error
	DeleteOpenEndedBefore(ctx context.Context, before time.Time) (int64, error)
}
