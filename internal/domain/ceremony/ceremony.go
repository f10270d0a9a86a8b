package ceremony

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrCeremonyNotFound = errors.New("ceremony not found")
	ErrInvalidName      = errors.New("invalid ceremony name")
	ErrInvalidSchedule  = errors.New("ceremony end precedes start")
)

// Ceremony represents one scheduled part of a wedding, such as the vows,
// the reception, or a rehearsal dinner.
type Ceremony struct {
	ID        int64
	EventID   int64
	Name      string
	Date      time.Time
	StartsAt  time.Time
	EndsAt    time.Time
	Location  string
	CreatedAt time.Time
}

// NewCeremony creates a new ceremony with validation
func NewCeremony(eventID int64, name string, date, startsAt, endsAt time.Time, location string) (*Ceremony, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if endsAt.Before(startsAt) {
		return nil, ErrInvalidSchedule
	}

	return &Ceremony{
		EventID:   eventID,
		Name:      name,
		Date:      date,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Location:  location,
		CreatedAt: time.Now(),
	}, nil
}
