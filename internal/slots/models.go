package slots

import "time"

type Status string

const (
	StatusOpen   Status = "open"
	StatusBooked Status = "booked"
)

type MeetingType string

const (
	MeetingOnline MeetingType = "online"
	MeetingOnsite MeetingType = "onsite"
)

// RoomRef identifies a bookable room resource in the directory.
type RoomRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Building string `json:"building,omitempty"`
}

// Claim records who booked a slot.
type Claim struct {
	CandidateRef string    `json:"candidateRef"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ClaimedAt    time.Time `json:"claimedAt"`
}

// Slot is a single interview time window. An open slot with an empty
// CandidateRef is public; otherwise it was proposed to that candidate only.
type Slot struct {
	ID                 string      `json:"id"`
	StartTime          time.Time   `json:"startTime"`
	EndTime            time.Time   `json:"endTime"`
	Status             Status      `json:"status"`
	CandidateRef       string      `json:"candidateRef,omitempty"`
	MeetingType        MeetingType `json:"meetingType"`
	Title              string      `json:"title,omitempty"`
	HiringManagerEmail string      `json:"hiringManagerEmail,omitempty"`
	Room               *RoomRef    `json:"room,omitempty"`
	JoinURL            string      `json:"joinUrl,omitempty"`
	Claim              *Claim      `json:"claim,omitempty"`
	Sequence           int         `json:"sequence"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// VisibleTo reports whether an open slot may be shown to candidateRef.
func (s Slot) VisibleTo(candidateRef string) bool {
	return s.CandidateRef == "" || s.CandidateRef == candidateRef
}

// NewSlot is the input for one proposed window.
type NewSlot struct {
	StartTime   time.Time   `json:"start"`
	EndTime     time.Time   `json:"end"`
	MeetingType MeetingType `json:"type" validate:"required,oneof=online onsite"`
	Room        *RoomRef    `json:"room,omitempty"`
}

// Proposal groups the slots offered in one request.
type Proposal struct {
	CandidateRef       string    `json:"candidateRef"`
	Title              string    `json:"title"`
	HiringManagerEmail string    `json:"hiringManagerEmail" validate:"omitempty,email"`
	Slots              []NewSlot `json:"slots" validate:"required,min=1,dive"`
}
