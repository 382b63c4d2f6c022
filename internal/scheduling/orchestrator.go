// Package scheduling runs the propose and claim flows end to end.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"interview-scheduler/internal/events"
	"interview-scheduler/internal/invite"
	"interview-scheduler/internal/meeting"
	"interview-scheduler/internal/notify"
	"interview-scheduler/internal/slots"
)

// ErrSlotConflict is returned when the slot exists but cannot be claimed by
// this candidate.
var ErrSlotConflict = errors.New("slot conflict")

// State is a step of a claim attempt. Steps only move forward.
type State string

const (
	StateReceived        State = "received"
	StateSlotClaimed     State = "slot-claimed"
	StateMeetingResolved State = "meeting-resolved"
	StateInviteComposed  State = "invite-composed"
	StateNotified        State = "notified"
	StateNotifyFailed    State = "notify-failed"
	StateDone            State = "done"
)

// SlotManager is the part of slots.Manager the orchestrator drives.
type SlotManager interface {
	Propose(ctx context.Context, p slots.Proposal) ([]slots.Slot, error)
	Claim(ctx context.Context, id string, c slots.Claim) (slots.Slot, error)
	AttachMeeting(ctx context.Context, id, joinURL string, room *slots.RoomRef) error
}

type MeetingResolver interface {
	Resolve(ctx context.Context, sl slots.Slot) meeting.Resolution
}

type ClaimRequest struct {
	SlotID       string `json:"slotId"`
	CandidateRef string `json:"candidateRef"`
	Name         string `json:"name"`
	Email        string `json:"email" binding:"required,email"`
}

// Outcome reports a successful claim. Booked is always true once an Outcome
// is returned; EmailSent is reported separately.
type Outcome struct {
	Slot       slots.Slot         `json:"slot"`
	Resolution meeting.Resolution `json:"meeting"`
	Invite     invite.Invite      `json:"invite"`
	Booked     bool               `json:"booked"`
	EmailSent  bool               `json:"emailSent"`
	EmailError string             `json:"emailError,omitempty"`
	States     []State            `json:"states"`
}

type Config struct {
	Composer            invite.Composer
	NotificationContact string
	Logger              *log.Logger
}

type Orchestrator struct {
	slots      SlotManager
	resolver   MeetingResolver
	dispatcher notify.Dispatcher
	publisher  events.Publisher
	cfg        Config

	Now func() time.Time
}

func New(sm SlotManager, resolver MeetingResolver, dispatcher notify.Dispatcher, publisher events.Publisher, cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Orchestrator{
		slots:      sm,
		resolver:   resolver,
		dispatcher: dispatcher,
		publisher:  publisher,
		cfg:        cfg,
		Now:        time.Now,
	}
}

// Propose persists the offered slots. Meetings are resolved only on claim.
func (o *Orchestrator) Propose(ctx context.Context, p slots.Proposal) ([]slots.Slot, error) {
	return o.slots.Propose(ctx, p)
}

// Claim books the slot and then, best-effort, resolves the meeting, composes
// the invite and mails it. Only the booking itself can fail the call.
func (o *Orchestrator) Claim(ctx context.Context, req ClaimRequest) (Outcome, error) {
	logger := o.cfg.Logger
	out := Outcome{States: []State{StateReceived}}

	claim := slots.Claim{
		CandidateRef: req.CandidateRef,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
	}
	sl, err := o.slots.Claim(ctx, req.SlotID, claim)
	switch {
	case errors.Is(err, slots.ErrSlotUnavailable):
		return Outcome{}, fmt.Errorf("%w: %w", ErrSlotConflict, err)
	case err != nil:
		return Outcome{}, err
	}
	out.Booked = true
	out.States = append(out.States, StateSlotClaimed)

	// The booking stands from here on; a caller that goes away must not cut
	// the meeting, the mail or the event short.
	ctx = context.WithoutCancel(ctx)

	res := o.resolver.Resolve(ctx, sl)
	if res.Kind != meeting.KindNone {
		if err := o.slots.AttachMeeting(ctx, sl.ID, res.JoinURL, res.Room); err != nil {
			logger.Printf("slot %s: storing meeting failed: %v", sl.ID, err)
		}
		sl.JoinURL = res.JoinURL
		if res.Room != nil {
			r := *res.Room
			sl.Room = &r
		}
	}
	out.Slot, out.Resolution = sl, res
	out.States = append(out.States, StateMeetingResolved)

	inv := o.cfg.Composer.Compose(sl, res, invite.Parties{
		Candidate:           invite.Party{Name: claim.Name, Email: claim.Email},
		HiringManager:       sl.HiringManagerEmail,
		NotificationContact: o.cfg.NotificationContact,
	}, o.Now())
	ics, err := inv.ICS()
	if err != nil {
		logger.Printf("slot %s: rendering invite failed: %v", sl.ID, err)
	}
	out.Invite = inv
	out.States = append(out.States, StateInviteComposed)

	if err := o.notify(ctx, inv, ics, claim.Email); err != nil {
		logger.Printf("slot %s: invite not sent: %v", sl.ID, err)
		out.EmailError = err.Error()
		out.States = append(out.States, StateNotifyFailed)
	} else {
		out.EmailSent = true
		out.States = append(out.States, StateNotified)
	}

	o.publish(ctx, out)
	out.States = append(out.States, StateDone)
	return out, nil
}

func (o *Orchestrator) notify(ctx context.Context, inv invite.Invite, ics, candidateEmail string) error {
	if o.dispatcher == nil {
		return errors.New("no dispatcher configured")
	}
	if candidateEmail == "" {
		return errors.New("candidate has no e-mail address")
	}
	to := inv.Recipients()
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	text := inv.Description
	return o.dispatcher.Send(ctx, notify.Message{
		From:    inv.Organizer.Email,
		To:      to,
		Subject: "Confirmed: " + inv.Summary,
		Text:    text,
		HTML:    "<pre>" + html.EscapeString(text) + "</pre>",
		Invite:  []byte(ics),
	})
}

func (o *Orchestrator) publish(ctx context.Context, out Outcome) {
	ev := events.BookingEvent{
		Type:        "slot.booked",
		SlotID:      out.Slot.ID,
		MeetingType: string(out.Slot.MeetingType),
		MeetingKind: string(out.Resolution.Kind),
		JoinURL:     out.Resolution.JoinURL,
		EmailSent:   out.EmailSent,
		Start:       out.Slot.StartTime,
		End:         out.Slot.EndTime,
		At:          o.Now().UTC(),
	}
	if out.Slot.Claim != nil {
		ev.CandidateRef = out.Slot.Claim.CandidateRef
	}
	if out.Resolution.Room != nil {
		ev.RoomEmail = out.Resolution.Room.Email
	}
	if err := o.publisher.Publish(ctx, ev); err != nil {
		o.cfg.Logger.Printf("slot %s: booking event not published: %v", out.Slot.ID, err)
	}
}
