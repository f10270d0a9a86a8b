package event

import (
	"errors"
	"regexp"
	"time"
)

// Common errors
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventAlreadyExists = errors.New("event already exists")
	ErrInvalidName        = errors.New("invalid event name")
	ErrInvalidSlug        = errors.New("invalid event slug")
	ErrInvalidDate        = errors.New("invalid event date")
)

// Status represents the event's current lifecycle stage
type Status string

// Predefined event statuses
const (
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Event represents a single wedding. It is the unit of data isolation:
// every other entity in the system belongs to exactly one event.
type Event struct {
	ID        int64
	Name      string
	Slug      string
	Venue     string
	Date      time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt *time.Time
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NewEvent creates a new event with validation
func NewEvent(name, slug, venue string, date time.Time) (*Event, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}
	if date.IsZero() {
		return nil, ErrInvalidDate
	}

	return &Event{
		Name:      name,
		Slug:      slug,
		Venue:     venue,
		Date:      date,
		Status:    StatusPlanning,
		CreatedAt: time.Now(),
	}, nil
}

// Activate marks the event as active
func (e *Event) Activate() {
	e.Status = StatusActive
	now := time.Now()
	e.UpdatedAt = &now
}

// Archive marks the event as archived
func (e *Event) Archive() {
	e.Status = StatusArchived
	now := time.Now()
	e.UpdatedAt = &now
}

// IsArchived checks if the event has been archived
func (e *Event) IsArchived() bool {
	return e.Status == StatusArchived
}
