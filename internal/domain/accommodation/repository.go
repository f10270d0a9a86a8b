package accommodation

import "context"

// Insert is the payload for creating an accommodation. The allocated-rooms
// counter always starts at zero; only the allocation repository moves it.
type Insert struct {
	Name       string
	Type       Type
	TotalRooms int32
	Notes      string
}

// Update carries the mutable accommodation fields for a partial update.
type Update struct {
	Name       *string
	Type       *Type
	TotalRooms *int32
	Notes      *string
}

// Repository defines event-scoped access to accommodations.
type Repository interface {
	// FindByID retrieves an accommodation by id within the event.
	FindByID(ctx context.Context, id, eventID int64) (*Accommodation, error)

	// ListByEvent returns every accommodation of the event.
	ListByEvent(ctx context.Context, eventID int64) ([]*Accommodation, error)

	// GetStats aggregates total, allocated, and available rooms plus the
	// number of distinct accommodation types. All zeros when the event has
	// no accommodations.
	GetStats(ctx context.Context, eventID int64) (*Stats, error)

	// ListWithAllocation returns each accommodation joined with the count
	// of room allocations referencing it.
	ListWithAllocation(ctx context.Context, eventID int64) ([]*WithAllocation, error)

	// ListAvailable returns accommodations with at least one free room.
	ListAvailable(ctx context.Context, eventID int64) ([]*Accommodation, error)

	// Create inserts an accommodation under the event.
	Create(ctx context.Context, in Insert, eventID int64) (*Accommodation, error)

	// CreateBatch inserts many accommodations in one statement.
	CreateBatch(ctx context.Context, in []Insert, eventID int64) ([]*Accommodation, error)

	// Update applies a partial update within the event.
	Update(ctx context.Context, id int64, upd Update, eventID int64) (*Accommodation, error)

	// Delete removes an accommodation within the event.
	Delete(ctx context.Context, id, eventID int64) (bool, error)

	// DeleteAllByEvent removes every accommodation of the event.
	DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error)
}
