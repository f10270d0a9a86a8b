package ceremony

import (
	"context"
	"time"
)

// Insert is the payload for creating a ceremony.
type Insert struct {
	Name     string
	Date     time.Time
	StartsAt time.Time
	EndsAt   time.Time
	Location string
}

// Update carries the mutable ceremony fields for a partial update.
type Update struct {
	Name     *string
	Date     *time.Time
	StartsAt *time.Time
	EndsAt   *time.Time
	Location *string
}

// Repository defines event-scoped access to ceremonies.
type Repository interface {
	// FindByID retrieves a ceremony by id within the event.
	FindByID(ctx context.Context, id, eventID int64) (*Ceremony, error)

	// ListByEvent returns every ceremony of the event ordered by schedule.
	ListByEvent(ctx context.Context, eventID int64) ([]*Ceremony, error)

	// ListByDateRange returns the event's ceremonies with dates in [from, to].
	ListByDateRange(ctx context.Context, from, to time.Time, eventID int64) ([]*Ceremony, error)

	// ListUpcoming returns up to limit ceremonies on or after the given day.
	ListUpcoming(ctx context.Context, from time.Time, limit int, eventID int64) ([]*Ceremony, error)

	// Create inserts a ceremony under the event.
	Create(ctx context.Context, in Insert, eventID int64) (*Ceremony, error)

	// CreateBatch inserts many ceremonies in one statement.
	CreateBatch(ctx context.Context, in []Insert, eventID int64) ([]*Ceremony, error)

	// Update applies a partial update within the event.
	Update(ctx context.Context, id int64, upd Update, eventID int64) (*Ceremony, error)

	// Delete removes a ceremony within the event.
	Delete(ctx context.Context, id, eventID int64) (bool, error)

	// DeleteAllByEvent removes every ceremony of the event.
	DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error)
}
