package meeting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"interview-scheduler/internal/directory"
	"interview-scheduler/internal/slots"
)

var ErrResourceUnavailable = errors.New("resource unavailable")

type Kind string

const (
	KindVirtualLink  Kind = "virtualLink"
	KindPhysicalRoom Kind = "physicalRoom"
	KindNone         Kind = "none"
)

// Resolution is the meeting chosen for a claimed slot.
type Resolution struct {
	Kind    Kind           `json:"kind"`
	JoinURL string         `json:"joinUrl,omitempty"`
	Room    *slots.RoomRef `json:"room,omitempty"`
}

// Conferencer mints a video meeting link.
type Conferencer interface {
	CreateMeeting(ctx context.Context, subject string, start, end time.Time) (string, error)
}

// Availability is the answer for a single room check.
type Availability struct {
	Available bool             `json:"available"`
	Busy      []directory.Busy `json:"busy"`
}

type Config struct {
	Exclude       []string
	DefaultLocale string
	Timeout       time.Duration
	Logger        *log.Logger
}

type Resolver struct {
	gateway     directory.Gateway
	conferencer Conferencer
	cfg         Config
}

func NewResolver(gateway directory.Gateway, conferencer Conferencer, cfg Config) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Resolver{gateway: gateway, conferencer: conferencer, cfg: cfg}
}

// Resolve picks the meeting for a just-claimed slot. It never fails; an
// unreachable provider yields KindNone.
func (r *Resolver) Resolve(ctx context.Context, sl slots.Slot) Resolution {
	if sl.MeetingType == slots.MeetingOnsite {
		return r.ResolveOnsite(ctx, sl)
	}
	subject := sl.Title
	if subject == "" {
		subject = "Interview"
	}
	return r.ResolveOnline(ctx, subject, sl.StartTime, sl.EndTime)
}

func (r *Resolver) ResolveOnline(ctx context.Context, subject string, start, end time.Time) Resolution {
	if r.conferencer == nil {
		return Resolution{Kind: KindNone}
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	link, err := r.conferencer.CreateMeeting(ctx, subject, start, end)
	if err != nil || link == "" {
		r.cfg.Logger.Printf("meeting link unavailable, continuing without one: %v", err)
		return Resolution{Kind: KindNone}
	}
	return Resolution{Kind: KindVirtualLink, JoinURL: link}
}

// ResolveOnsite keeps a room chosen at proposal time, otherwise takes the
// first free room in the default locale.
func (r *Resolver) ResolveOnsite(ctx context.Context, sl slots.Slot) Resolution {
	if sl.Room != nil && sl.Room.Email != "" {
		room := *sl.Room
		return Resolution{Kind: KindPhysicalRoom, Room: &room}
	}
	rooms, err := r.FindAvailableRooms(ctx, sl.StartTime, sl.EndTime, r.cfg.DefaultLocale)
	if err != nil || len(rooms) == 0 {
		return Resolution{Kind: KindNone}
	}
	room := rooms[0]
	return Resolution{Kind: KindPhysicalRoom, Room: &room}
}

// FindAvailableRooms filters the directory by locale, category and the
// exclusion list before issuing one batched free/busy query. Provider
// failures produce an empty list.
func (r *Resolver) FindAvailableRooms(ctx context.Context, start, end time.Time, locale string) ([]slots.RoomRef, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must be before end", slots.ErrValidation)
	}
	if r.gateway == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resources, err := r.gateway.ListResources(ctx)
	if err != nil {
		r.cfg.Logger.Printf("room lookup degraded: %v", err)
		return nil, nil
	}
	candidates := FilterResources(resources, locale, r.cfg.Exclude)
	if len(candidates) == 0 {
		return nil, nil
	}

	emails := make([]string, 0, len(candidates))
	for _, c := range candidates {
		emails = append(emails, c.Email)
	}
	busy, err := r.gateway.FreeBusy(ctx, emails, start, end)
	if err != nil {
		r.cfg.Logger.Printf("room availability degraded: %v", err)
		return nil, nil
	}

	var out []slots.RoomRef
	for _, c := range candidates {
		if overlapsAny(busy[c.Email], start, end) {
			continue
		}
		out = append(out, roomRef(c))
	}
	return out, nil
}

// CheckRoomAvailability runs the free/busy check for one room address.
func (r *Resolver) CheckRoomAvailability(ctx context.Context, email string, start, end time.Time) (Availability, error) {
	if strings.TrimSpace(email) == "" || !start.Before(end) {
		return Availability{}, fmt.Errorf("%w: room email and a valid window are required", slots.ErrValidation)
	}
	if r.gateway == nil {
		return Availability{}, fmt.Errorf("%w: directory not configured", ErrResourceUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	busy, err := r.gateway.FreeBusy(ctx, []string{email}, start, end)
	if err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
	}
	var conflicts []directory.Busy
	for _, b := range busy[email] {
		if b.Overlaps(start, end) {
			conflicts = append(conflicts, b)
		}
	}
	return Availability{Available: len(conflicts) == 0, Busy: conflicts}, nil
}

// FilterResources applies, in order: locale match on the building address,
// room category, and the name exclusion list.
func FilterResources(resources []directory.Resource, locale string, exclude []string) []directory.Resource {
	var out []directory.Resource
	for _, res := range resources {
		if !matchesLocale(res.Address, locale) {
			continue
		}
		if res.Category != directory.CategoryRoom {
			continue
		}
		if excluded(res.Name, exclude) {
			continue
		}
		if res.Email == "" {
			continue
		}
		out = append(out, res)
	}
	return out
}

func matchesLocale(addr directory.Address, locale string) bool {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return true
	}
	for _, v := range []string{addr.RegionCode, addr.Locality, addr.AdministrativeArea} {
		if v != "" && strings.EqualFold(v, locale) {
			return true
		}
	}
	return false
}

func excluded(name string, exclude []string) bool {
	lower := strings.ToLower(name)
	for _, e := range exclude {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" && strings.Contains(lower, e) {
			return true
		}
	}
	return false
}

func overlapsAny(busy []directory.Busy, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func roomRef(res directory.Resource) slots.RoomRef {
	return slots.RoomRef{ID: res.ID, Name: res.Name, Email: res.Email, Building: res.BuildingName}
}
