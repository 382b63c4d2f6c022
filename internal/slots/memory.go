package slots

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. All mutations happen under one
// mutex, which makes ClaimOpen a compare-and-swap on status.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]Slot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]Slot)}
}

func (m *MemoryStore) Insert(_ context.Context, slots []Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sl := range slots {
		m.slots[sl.ID] = cloneSlot(sl)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	return cloneSlot(sl), nil
}

func (m *MemoryStore) ListOpen(_ context.Context, candidateRef string, after time.Time) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, sl := range m.slots {
		if sl.Status == StatusOpen && sl.StartTime.After(after) && sl.VisibleTo(candidateRef) {
			out = append(out, cloneSlot(sl))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *MemoryStore) ClaimOpen(_ context.Context, id string, claim Claim) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	if sl.Status != StatusOpen || !sl.VisibleTo(claim.CandidateRef) {
		return Slot{}, ErrSlotUnavailable
	}
	c := claim
	sl.Status = StatusBooked
	sl.Claim = &c
	m.slots[id] = sl
	return cloneSlot(sl), nil
}

func (m *MemoryStore) AttachMeeting(_ context.Context, id, joinURL string, room *RoomRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[id]
	if !ok || sl.Status != StatusBooked {
		return ErrSlotNotFound
	}
	sl.JoinURL = joinURL
	if room != nil {
		r := *room
		sl.Room = &r
	}
	m.slots[id] = sl
	return nil
}

func (m *MemoryStore) DeleteOpen(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[id]
	if !ok || sl.Status != StatusOpen {
		return ErrSlotNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *MemoryStore) DeleteOpenEndedBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, sl := range m.slots {
		if sl.Status == StatusOpen && sl.EndTime.Before(before) {
			delete(m.slots, id)
			n++
		}
	}
	return n, nil
}

func cloneSlot(sl Slot) Slot {
	if sl.Room != nil {
		r := *sl.Room
		sl.Room = &r
	}
	if sl.Claim != nil {
		c := *sl.Claim
		sl.Claim = &c
	}
	return sl
}
