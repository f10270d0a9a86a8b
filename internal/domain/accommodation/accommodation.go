package accommodation

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrAccommodationNotFound = errors.New("accommodation not found")
	ErrInvalidName           = errors.New("invalid accommodation name")
	ErrInvalidRoomCount      = errors.New("negative room count")
)

// Type categorizes a lodging option
type Type string

// Predefined accommodation types
const (
	TypeHotel      Type = "hotel"
	TypeGuesthouse Type = "guesthouse"
	TypeAirbnb     Type = "airbnb"
	TypeOther      Type = "other"
)

// Accommodation represents a block of rooms reserved for an event's guests.
// AllocatedRooms is a stored counter that must always equal the number of
// live room allocations referencing this accommodation.
type Accommodation struct {
	ID             int64
	EventID        int64
	Name           string
	Type           Type
	TotalRooms     int32
	AllocatedRooms int32
	Notes          string
	CreatedAt      time.Time
}

// AvailableRooms derives the remaining capacity.
func (a *Accommodation) AvailableRooms() int32 { return a.TotalRooms - a.AllocatedRooms }

// NewAccommodation creates a new accommodation with validation
func NewAccommodation(eventID int64, name string, typ Type, totalRooms int32, notes string) (*Accommodation, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if totalRooms < 0 {
		return nil, ErrInvalidRoomCount
	}

	return &Accommodation{
		EventID:    eventID,
		Name:       name,
		Type:       typ,
		TotalRooms: totalRooms,
		Notes:      notes,
		CreatedAt:  time.Now(),
	}, nil
}

// Stats aggregates room capacity across all of an event's accommodations.
type Stats struct {
	TotalRooms     int64
	AllocatedRooms int64
	AvailableRooms int64
	Types          int64
}

// WithAllocation pairs an accommodation with its live allocation count.
type WithAllocation struct {
	Accommodation
	GuestsAssigned int64
	Available      int32
}
