package template

import "context"

// Repository defines event-scoped access to message templates.
type Repository interface {
	// FindByID retrieves a template by id within the event.
	FindByID(ctx context.Context, id, eventID int64) (*Template, error)

	// ListByEvent returns every template of the event.
	ListByEvent(ctx context.Context, eventID int64) ([]*Template, error)

	// ListByCategory returns the event's templates in one category.
	ListByCategory(ctx context.Context, category Category, eventID int64) ([]*Template, error)

	// Search returns templates whose name contains the term.
	Search(ctx context.Context, term string, eventID int64) ([]*Template, error)

	// RecentlyUsed returns up to limit templates ordered by last use,
	// most recent first. Never-used templates sort last.
	RecentlyUsed(ctx context.Context, limit int, eventID int64) ([]*Template, error)

	// MarkUsed stamps the template's last-used time with the current time.
	// The stamp only moves forward. Reports whether a row was affected.
	MarkUsed(ctx context.Context, id, eventID int64) (bool, error)

	// Create inserts a template under the event.
	Create(ctx context.Context, in Insert, eventID int64) (*Template, error)

	// CreateBatch inserts many templates in one statement.
	CreateBatch(ctx context.Context, in []Insert, eventID int64) ([]*Template, error)

	// Update applies a partial update within the event.
	Update(ctx context.Context, id int64, upd Update, eventID int64) (*Template, error)

	// Delete removes a template within the event.
	Delete(ctx context.Context, id, eventID int64) (bool, error)

	// DeleteAllByEvent removes every template of the event.
	DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error)
}
