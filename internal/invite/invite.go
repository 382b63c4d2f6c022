// Package invite builds the calendar invitation sent when a slot is booked.
package invite

import (
	"fmt"
	"strings"
	"time"

	"interview-scheduler/internal/meeting"
	"interview-scheduler/internal/slots"
)

const (
	OnlinePlaceholder = "Meeting link to follow"
	OnsitePlaceholder = "Onsite (room to be confirmed)"
)

type AttendeeKind string

const (
	KindIndividual AttendeeKind = "INDIVIDUAL"
	KindRoom       AttendeeKind = "ROOM"
)

type Party struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type Attendee struct {
	Party
	Kind AttendeeKind `json:"kind"`
	RSVP bool         `json:"rsvp"`
}

// Parties are the people who may receive the invite besides the organizer.
type Parties struct {
	Candidate           Party
	HiringManager       string
	NotificationContact string
}

// Invite is a composed calendar request, ready to render.
type Invite struct {
	UID         string     `json:"uid"`
	Organizer   Party      `json:"organizer"`
	Attendees   []Attendee `json:"attendees"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Sequence    int        `json:"sequence"`
	Stamp       time.Time  `json:"stamp"`
}

// Recipients returns the e-mail addresses of the human attendees.
func (inv Invite) Recipients() []string {
	var out []string
	for _, a := range inv.Attendees {
		if a.Kind == KindIndividual {
			out = append(out, a.Email)
		}
	}
	return out
}

// Composer holds the fixed parts of every invite.
type Composer struct {
	UIDDomain string
	Sender    Party
	Timezone  *time.Location
}

// Compose is deterministic: the same slot, resolution, parties and stamp
// always give the same invite.
func (c Composer) Compose(sl slots.Slot, res meeting.Resolution, p Parties, stamp time.Time) Invite {
	tz := c.Timezone
	if tz == nil {
		tz = time.UTC
	}

	var room *slots.RoomRef
	if sl.MeetingType == slots.MeetingOnsite && res.Kind == meeting.KindPhysicalRoom && res.Room != nil && res.Room.Email != "" {
		room = res.Room
	}

	list := attendeeList{sender: c.Sender.Email}
	list.add(Attendee{Party: p.Candidate, Kind: KindIndividual, RSVP: true})
	list.add(Attendee{Party: Party{Email: p.HiringManager}, Kind: KindIndividual, RSVP: true})
	if !sameAddress(p.NotificationContact, p.HiringManager) {
		list.add(Attendee{Party: Party{Email: p.NotificationContact}, Kind: KindIndividual})
	}
	if room != nil {
		list.add(Attendee{Party: Party{Name: room.Name, Email: room.Email}, Kind: KindRoom, RSVP: true})
	}

	inv := Invite{
		UID:       sl.ID + "@" + c.UIDDomain,
		Organizer: c.Sender,
		Attendees: list.items,
		Summary:   summary(sl, p),
		Location:  location(sl, res, room),
		Start:     sl.StartTime.UTC(),
		End:       sl.EndTime.UTC(),
		Sequence:  sl.Sequence,
		Stamp:     stamp.UTC(),
	}
	inv.Description = description(inv, sl, res, tz)
	return inv
}

type attendeeList struct {
	sender string
	items  []Attendee
}

// add keeps the first casing of an address and skips the organizer's own.
func (l *attendeeList) add(a Attendee) {
	a.Email = strings.TrimSpace(a.Email)
	if a.Email == "" || sameAddress(a.Email, l.sender) {
		return
	}
	for _, existing := range l.items {
		if sameAddress(existing.Email, a.Email) {
			return
		}
	}
	l.items = append(l.items, a)
}

func sameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func location(sl slots.Slot, res meeting.Resolution, room *slots.RoomRef) string {
	if sl.MeetingType == slots.MeetingOnsite {
		if room == nil {
			return OnsitePlaceholder
		}
		building := room.Building
		if building == "" {
			building = "Onsite"
		}
		return fmt.Sprintf("%s (%s)", room.Name, building)
	}
	if res.Kind == meeting.KindVirtualLink && res.JoinURL != "" {
		return res.JoinURL
	}
	return OnlinePlaceholder
}

func summary(sl slots.Slot, p Parties) string {
	if sl.Title != "" {
		return "Interview: " + sl.Title
	}
	if p.Candidate.Name != "" {
		return "Interview with " + p.Candidate.Name
	}
	return "Interview"
}

func description(inv Invite, sl slots.Slot, res meeting.Resolution, tz *time.Location) string {
	var b strings.Builder
	start, end := inv.Start.In(tz), inv.End.In(tz)
	fmt.Fprintf(&b, "%s\n", inv.Summary)
	fmt.Fprintf(&b, "When: %s - %s (%s)\n", start.Format("Mon 2 Jan 2006 15:04"), end.Format("15:04"), tz.String())
	switch {
	case sl.MeetingType == slots.MeetingOnline && res.Kind == meeting.KindVirtualLink:
		fmt.Fprintf(&b, "Join: %s\n", res.JoinURL)
	case sl.MeetingType == slots.MeetingOnline:
		fmt.Fprintf(&b, "%s.\n", OnlinePlaceholder)
	default:
		fmt.Fprintf(&b, "Where: %s\n", inv.Location)
	}
	return b.String()
}
