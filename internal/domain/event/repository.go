package event

import "context"

// Repository defines the interface for event data access operations.
// Events are the tenancy roots, so unlike the child repositories these
// operations are not themselves scoped by an event id.
type Repository interface {
	// Create persists a new event and returns the assigned ID.
	// If an event with the same slug already exists, an error is returned.
	Create(ctx context.Context, e *Event) (int64, error)

	// Update modifies an existing event's properties.
	Update(ctx context.Context, e *Event) error

	// FindByID retrieves an event by its unique identifier.
	// Returns ErrEventNotFound if no such event exists.
	FindByID(ctx context.Context, id int64) (*Event, error)

	// FindBySlug retrieves an event by its unique slug.
	// Returns ErrEventNotFound if no such event exists.
	FindBySlug(ctx context.Context, slug string) (*Event, error)

	// List returns all events ordered by date.
	List(ctx context.Context) ([]*Event, error)

	// Delete permanently removes an event. All rows owned by the event
	// are removed with it, so callers should validate intent first.
	Delete(ctx context.Context, id int64) error
}
