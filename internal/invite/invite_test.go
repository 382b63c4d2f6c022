package invite

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"interview-scheduler/internal/meeting"
	"interview-scheduler/internal/slots"
)

var (
	start = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	end   = start.Add(30 * time.Minute)
	stamp = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
)

func testComposer() Composer {
	return Composer{
		UIDDomain: "interviews.example.com",
		Sender:    Party{Name: "Recruiting", Email: "recruiting@example.com"},
		Timezone:  time.UTC,
	}
}

func onlineSlot() slots.Slot {
	return slots.Slot{
		ID:          "slot-1",
		StartTime:   start,
		EndTime:     end,
		Status:      slots.StatusBooked,
		MeetingType: slots.MeetingOnline,
		Title:       "Backend Engineer",
	}
}

func emails(inv Invite) []string {
	var out []string
	for _, a := range inv.Attendees {
		out = append(out, strings.ToLower(a.Email))
	}
	return out
}

func TestComposeDeduplicatesCaseInsensitively(t *testing.T) {
	c := testComposer()
	res := meeting.Resolution{Kind: meeting.KindVirtualLink, JoinURL: "https://meet.google.com/abc-defg-hij"}

	inv := c.Compose(onlineSlot(), res, Parties{
		Candidate:           Party{Name: "Ada", Email: "A@x.com"},
		HiringManager:       "a@x.com",
		NotificationContact: "hr@example.com",
	}, stamp)

	if len(inv.Attendees) != 2 {
		t.Fatalf("expected 2 attendees, got %+v", inv.Attendees)
	}
	if inv.Attendees[0].Email != "A@x.com" {
		t.Fatalf("expected first casing to survive, got %q", inv.Attendees[0].Email)
	}

	again := c.Compose(onlineSlot(), res, Parties{
		Candidate:           Party{Name: "Ada", Email: "a@X.COM"},
		HiringManager:       "HR@example.com",
		NotificationContact: "A@x.com",
	}, stamp)
	if !reflect.DeepEqual(emails(inv), emails(again)) {
		t.Fatalf("attendee sets differ: %v vs %v", emails(inv), emails(again))
	}
}

func TestComposeSkipsSenderAndDuplicateContact(t *testing.T) {
	inv := testComposer().Compose(onlineSlot(), meeting.Resolution{Kind: meeting.KindNone}, Parties{
		Candidate:           Party{Email: "cand@example.com"},
		HiringManager:       "Recruiting@Example.com",
		NotificationContact: "recruiting@example.com",
	}, stamp)

	if got := emails(inv); !reflect.DeepEqual(got, []string{"cand@example.com"}) {
		t.Fatalf("expected only the candidate, got %v", got)
	}
	if !inv.Attendees[0].RSVP {
		t.Fatal("candidate must be asked to RSVP")
	}

	inv = testComposer().Compose(onlineSlot(), meeting.Resolution{Kind: meeting.KindNone}, Parties{
		Candidate:           Party{Email: "cand@example.com"},
		HiringManager:       "hm@example.com",
		NotificationContact: "HM@example.com",
	}, stamp)
	if got := emails(inv); !reflect.DeepEqual(got, []string{"cand@example.com", "hm@example.com"}) {
		t.Fatalf("unexpected attendees %v", got)
	}
}

func TestComposeRoomAttendeeOnlyWhenOnsite(t *testing.T) {
	room := &slots.RoomRef{ID: "blue", Name: "Blue", Email: "blue@resource.example.com", Building: "HQ"}
	res := meeting.Resolution{Kind: meeting.KindPhysicalRoom, Room: room}
	p := Parties{Candidate: Party{Email: "cand@example.com"}}

	sl := onlineSlot()
	sl.MeetingType = slots.MeetingOnsite
	inv := testComposer().Compose(sl, res, p, stamp)
	last := inv.Attendees[len(inv.Attendees)-1]
	if last.Kind != KindRoom || last.Email != room.Email {
		t.Fatalf("expected room attendee, got %+v", inv.Attendees)
	}
	if inv.Location != "Blue (HQ)" {
		t.Fatalf("unexpected location %q", inv.Location)
	}
	if got := inv.Recipients(); !reflect.DeepEqual(got, []string{"cand@example.com"}) {
		t.Fatalf("rooms are not mail recipients, got %v", got)
	}

	inv = testComposer().Compose(onlineSlot(), res, p, stamp)
	for _, a := range inv.Attendees {
		if a.Kind == KindRoom {
			t.Fatalf("online slot must not carry a room attendee: %+v", inv.Attendees)
		}
	}
}

func TestComposeLocation(t *testing.T) {
	onsite := onlineSlot()
	onsite.MeetingType = slots.MeetingOnsite
	noBuilding := &slots.RoomRef{Name: "Green", Email: "green@resource.example.com"}

	tests := []struct {
		name string
		sl   slots.Slot
		res  meeting.Resolution
		want string
	}{
		{"online link", onlineSlot(), meeting.Resolution{Kind: meeting.KindVirtualLink, JoinURL: "https://meet.google.com/x"}, "https://meet.google.com/x"},
		{"online none", onlineSlot(), meeting.Resolution{Kind: meeting.KindNone}, OnlinePlaceholder},
		{"onsite no building", onsite, meeting.Resolution{Kind: meeting.KindPhysicalRoom, Room: noBuilding}, "Green (Onsite)"},
		{"onsite none", onsite, meeting.Resolution{Kind: meeting.KindNone}, OnsitePlaceholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testComposer().Compose(tt.sl, tt.res, Parties{Candidate: Party{Email: "c@example.com"}}, stamp)
			if inv.Location != tt.want {
				t.Fatalf("got %q, want %q", inv.Location, tt.want)
			}
		})
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := testComposer()
	p := Parties{Candidate: Party{Name: "Ada", Email: "ada@example.com"}, HiringManager: "hm@example.com"}
	a := c.Compose(onlineSlot(), meeting.Resolution{Kind: meeting.KindNone}, p, stamp)
	b := c.Compose(onlineSlot(), meeting.Resolution{Kind: meeting.KindNone}, p, stamp)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("compose not deterministic:\n%+v\n%+v", a, b)
	}
	if a.UID != "slot-1@interviews.example.com" || a.Sequence != 0 {
		t.Fatalf("unexpected uid/sequence %q/%d", a.UID, a.Sequence)
	}
	if a.Summary != "Interview: Backend Engineer" {
		t.Fatalf("unexpected summary %q", a.Summary)
	}
}
