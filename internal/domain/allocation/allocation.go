package allocation

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrAllocationNotFound = errors.New("room allocation not found")
)

// RoomAllocation links one guest to one accommodation. It carries no event
// column of its own; event membership is established through the referenced
// guest and accommodation, which must belong to the same event.
type RoomAllocation struct {
	ID              int64
	GuestID         int64
	AccommodationID int64
	RoomLabel       string
	Notes           string
	CreatedAt       time.Time
}

// Insert is the payload for creating a room allocation.
type Insert struct {
	GuestID         int64
	AccommodationID int64
	RoomLabel       string
	Notes           string
}

// Update carries the mutable allocation fields for a partial update.
// Changing AccommodationID moves the guest, which also moves the
// allocated-rooms counters of both accommodations.
type Update struct {
	GuestID         *int64
	AccommodationID *int64
	RoomLabel       *string
	Notes           *string
}
