package slots

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Manager owns slot state. Every mutation goes through it; callers never
// read-modify-write slots themselves.
type Manager struct {
	store    Store
	logger   *log.Logger
	validate *validator.Validate

	Now   func() time.Time
	NewID func() string
}

func NewManager(store Store, logger *log.Logger) *Manager {
	return &Manager{
		store:    store,
		logger:   logger,
		validate: validator.New(),
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Propose persists one open slot per entry. Overlapping proposals are allowed.
func (m *Manager) Propose(ctx context.Context, p Proposal) ([]Slot, error) {
	if err := m.validateProposal(p); err != nil {
		return nil, err
	}

	now := m.Now().UTC()
	out := make([]Slot, 0, len(p.Slots))
	for _, ns := range p.Slots {
		sl := Slot{
			ID:                 m.NewID(),
			StartTime:          ns.StartTime.UTC(),
			EndTime:            ns.EndTime.UTC(),
			Status:             StatusOpen,
			CandidateRef:       strings.TrimSpace(p.CandidateRef),
			MeetingType:        ns.MeetingType,
			Title:              p.Title,
			HiringManagerEmail: p.HiringManagerEmail,
			CreatedAt:          now,
		}
		if ns.Room != nil && ns.MeetingType == MeetingOnsite {
			r := *ns.Room
			sl.Room = &r
		}
		out = append(out, sl)
	}

	if err := m.store.Insert(ctx, out); err != nil {
		return nil, err
	}
	m.logger.Printf("proposed %d slot(s) candidate=%q", len(out), p.CandidateRef)
	return out, nil
}

// ListOpen returns future open slots that are public or scoped to candidateRef.
func (m *Manager) ListOpen(ctx context.Context, candidateRef string) ([]Slot, error) {
	return m.store.ListOpen(ctx, strings.TrimSpace(candidateRef), m.Now().UTC())
}

func (m *Manager) Get(ctx context.Context, id string) (Slot, error) {
	return m.store.Get(ctx, id)
}

// Claim books an open slot for a candidate. The returned slot carries the
// room and meeting type as proposed, plus the new claim.
func (m *Manager) Claim(ctx context.Context, id string, c Claim) (Slot, error) {
	c.CandidateRef = strings.TrimSpace(c.CandidateRef)
	if strings.TrimSpace(id) == "" || c.CandidateRef == "" {
		return Slot{}, fmt.Errorf("%w: slot id and candidate ref are required", ErrValidation)
	}
	if c.ClaimedAt.IsZero() {
		c.ClaimedAt = m.Now().UTC()
	}

	sl, err := m.store.ClaimOpen(ctx, id, c)
	if err != nil {
		return Slot{}, err
	}
	m.logger.Printf("slot %s booked by candidate=%q", id, c.CandidateRef)
	return sl, nil
}

// AttachMeeting records the resolved meeting on a booked slot.
func (m *Manager) AttachMeeting(ctx context.Context, id, joinURL string, room *RoomRef) error {
	return m.store.AttachMeeting(ctx, id, joinURL, room)
}

// Delete removes an open slot. Booked slots report ErrSlotNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteOpen(ctx, id); err != nil {
		return err
	}
	m.logger.Printf("slot %s deleted", id)
	return nil
}

// PurgeExpired deletes open slots that ended before the cutoff.
func (m *Manager) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return m.store.DeleteOpenEndedBefore(ctx, before)
}

func (m *Manager) validateProposal(p Proposal) error {
	if err := m.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for i, ns := range p.Slots {
		if ns.StartTime.IsZero() || ns.EndTime.IsZero() {
			return fmt.Errorf("%w: slot %d: start and end are required", ErrValidation, i)
		}
		if !ns.StartTime.Before(ns.EndTime) {
			return fmt.Errorf("%w: slot %d: start must be before end", ErrValidation, i)
		}
	}
	return nil
}
