package guest

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrGuestNotFound = errors.New("guest not found")
	ErrInvalidName   = errors.New("invalid guest name")
	ErrInvalidRSVP   = errors.New("invalid rsvp status")
)

// RSVPStatus represents a guest's reply to the invitation
type RSVPStatus string

// Predefined RSVP statuses
const (
	RSVPPending   RSVPStatus = "pending"
	RSVPConfirmed RSVPStatus = "confirmed"
	RSVPDeclined  RSVPStatus = "declined"
)

// ValidRSVPStatus checks if the status is one of the known replies
func ValidRSVPStatus(s RSVPStatus) bool {
	switch s {
	case RSVPPending, RSVPConfirmed, RSVPDeclined:
		return true
	default:
		return false
	}
}

// Child holds the details of one accompanying child.
type Child struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
	Meal string `json:"meal,omitempty"`
}

// Guest represents an invited guest belonging to exactly one event.
type Guest struct {
	ID                 int64
	EventID            int64
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	RSVPStatus         RSVPStatus
	PlusOne            bool
	PlusOneName        *string
	Children           []Child
	NeedsAccommodation bool
	RSVPCode           uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// HasChildren reports whether the guest brings at least one child.
func (g *Guest) HasChildren() bool { return len(g.Children) > 0 }

// NewGuest creates a new guest with validation. The RSVP code is
// generated here so every guest can be looked up by invitation code.
func NewGuest(eventID int64, firstName, lastName, email, phone string) (*Guest, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, ErrInvalidName
	}

	return &Guest{
		EventID:    eventID,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		Phone:      phone,
		RSVPStatus: RSVPPending,
		RSVPCode:   uuid.New(),
		CreatedAt:  time.Now(),
	}, nil
}

// ParseChildren decodes a children-details payload. Historical rows stored
// the list twice-encoded (a JSON string containing JSON), newer rows store
// a plain JSON array; both shapes are accepted here so no other call site
// needs to care. Malformed payloads decode to an empty list.
func ParseChildren(raw []byte) []Child {
	if len(raw) == 0 {
		return nil
	}

	var children []Child
	if err := json.Unmarshal(raw, &children); err == nil {
		return children
	}

	// Fall back to the string-encoded representation.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &children); err != nil {
		return nil
	}
	return children
}

// Statistics summarizes the guest list of one event.
type Statistics struct {
	Total              int64
	Confirmed          int64
	Declined           int64
	Pending            int64
	WithPlusOne        int64
	WithChildren       int64
	NeedsAccommodation int64
}
