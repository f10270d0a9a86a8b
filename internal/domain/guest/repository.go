package guest

import (
	"context"

	"github.com/google/uuid"
)

// Insert is the payload for creating a guest. The event id is attached by
// the repository, never by the caller.
type Insert struct {
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
}

// Update carries the mutable guest fields for a partial update. Nil fields
// are left untouched.
type Update struct {
	FirstName          *string
	LastName           *string
	Email              *string
	Phone              *string
	RSVPStatus         *RSVPStatus
	PlusOne            *bool
	PlusOneName        *string
	Children           []Child
	NeedsAccommodation *bool
}

// Repository defines event-scoped access to guests. Every operation takes
// the owning event's id; rows belonging to other events are never visible.
type Repository interface {
	// FindByID retrieves a guest by id within the event.
	// Returns ErrGuestNotFound if the guest does not exist under the event.
	FindByID(ctx context.Context, id, eventID int64) (*Guest, error)

	// FindByEmail retrieves a guest by exact email within the event.
	FindByEmail(ctx context.Context, email string, eventID int64) (*Guest, error)

	// FindByRSVPCode retrieves a guest by invitation code within the event.
	FindByRSVPCode(ctx context.Context, code uuid.UUID, eventID int64) (*Guest, error)

	// ListByEvent returns every guest of the event.
	ListByEvent(ctx context.Context, eventID int64) ([]*Guest, error)

	// Search returns guests whose name or email contains the term.
	Search(ctx context.Context, term string, eventID int64) ([]*Guest, error)

	// ListByRSVPStatus returns guests filtered by RSVP reply.
	ListByRSVPStatus(ctx context.Context, status RSVPStatus, eventID int64) ([]*Guest, error)

	// ListNeedingAccommodation returns guests flagged as needing a room.
	ListNeedingAccommodation(ctx context.Context, eventID int64) ([]*Guest, error)

	// Statistics summarizes the event's guest list.
	Statistics(ctx context.Context, eventID int64) (*Statistics, error)

	// Create inserts a guest under the event and returns the stored row.
	Create(ctx context.Context, in Insert, eventID int64) (*Guest, error)

	// CreateBatch inserts many guests in one statement. An empty input
	// returns an empty slice without touching the store.
	CreateBatch(ctx context.Context, in []Insert, eventID int64) ([]*Guest, error)

	// Update applies a partial update to a guest within the event.
	// Returns ErrGuestNotFound if the guest does not exist under the event.
	Update(ctx context.Context, id int64, upd Update, eventID int64) (*Guest, error)

	// Delete removes a guest within the event. Reports whether a row was removed.
	Delete(ctx context.Context, id, eventID int64) (bool, error)

	// DeleteAllByEvent removes every guest of the event and returns the count.
	DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error)
}
