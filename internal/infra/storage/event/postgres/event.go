// Package postgres provides the PostgreSQL implementation of the event
// repository. Events are the tenancy roots; this store is the only one
// whose queries are not routed through an event-scoped predicate, because
// the event id is the scope itself.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/event"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

var _ event.Repository = (*eventStore)(nil)

type eventStore struct {
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
}

// NewEventStore creates an event.Repository backed by PostgreSQL.
func NewEventStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) event.Repository {
	return &eventStore{
		pool:   pool,
		log:    log.With("entity", "events"),
		tracer: tracer,
	}
}

type eventRow struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Slug      string     `db:"slug"`
	Venue     string     `db:"venue"`
	EventDate time.Time  `db:"event_date"`
	Status    string     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

const eventColumns = "id, name, slug, venue, event_date, status, created_at, updated_at"

// Create persists a new event and returns its ID. A duplicate slug fails
// with ErrEventAlreadyExists.
func (s *eventStore) Create(ctx context.Context, e *event.Event) (int64, error) {
	var id int64
	err := storage.ExecuteAndTrace(ctx, s.tracer, "eventStore.Create",
		[]attribute.KeyValue{
			attribute.String("db.system", "postgresql"),
			attribute.String("event.slug", e.Slug),
		},
		func(ctx context.Context) error {
			const query = `
				INSERT INTO events (name, slug, venue, event_date, status)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
			`
			return s.pool.QueryRow(ctx, query,
				e.Name, e.Slug, e.Venue, e.Date, string(e.Status),
			).Scan(&id)
		})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, event.ErrEventAlreadyExists
		}
		s.log.Error(ctx, "store operation failed", "operation", "Create", "error", err)
		return 0, err
	}

	return id, nil
}

// Update modifies an existing event's properties.
func (s *eventStore) Update(ctx context.Context, e *event.Event) error {
	err := storage.ExecuteAndTrace(ctx, s.tracer, "eventStore.Update",
		[]attribute.KeyValue{
			attribute.String("db.system", "postgresql"),
			attribute.Int64("event.id", e.ID),
		},
		func(ctx context.Context) error {
			const query = `
				UPDATE events
				SET name = $2, venue = $3, event_date = $4, status = $5, updated_at = now()
				WHERE id = $1
			`
			_, err := s.pool.Exec(ctx, query,
				e.ID, e.Name, e.Venue, e.Date, string(e.Status),
			)
			return err
		})
	if err != nil {
		s.log.Error(ctx, "store operation failed", "operation", "Update", "event_id", e.ID, "error", err)
	}
	return err
}

// FindByID retrieves an event by ID.
// Returns ErrEventNotFound if the event doesn't exist.
func (s *eventStore) FindByID(ctx context.Context, id int64) (*event.Event, error) {
	return s.findOne(ctx, "eventStore.FindByID", "WHERE id = $1", id)
}

// FindBySlug retrieves an event by slug.
// Returns ErrEventNotFound if the event doesn't exist.
func (s *eventStore) FindBySlug(ctx context.Context, slug string) (*event.Event, error) {
	return s.findOne(ctx, "eventStore.FindBySlug", "WHERE slug = $1", slug)
}

func (s *eventStore) findOne(ctx context.Context, spanName, where string, arg any) (*event.Event, error) {
	var row *eventRow
	err := storage.ExecuteAndTrace(ctx, s.tracer, spanName,
		[]attribute.KeyValue{attribute.String("db.system", "postgresql")},
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, "SELECT "+eventColumns+" FROM events "+where, arg)
			if err != nil {
				return err
			}
			row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[eventRow])
			return err
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		s.log.Error(ctx, "store operation failed", "operation", spanName, "error", err)
		return nil, err
	}

	return mapRowToDomain(row), nil
}

// List returns all events ordered by date.
func (s *eventStore) List(ctx context.Context) ([]*event.Event, error) {
	var out []*event.Event
	err := storage.ExecuteAndTrace(ctx, s.tracer, "eventStore.List",
		[]attribute.KeyValue{attribute.String("db.system", "postgresql")},
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx,
				"SELECT "+eventColumns+" FROM events ORDER BY event_date, id")
			if err != nil {
				return err
			}
			collected, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[eventRow])
			if err != nil {
				return err
			}
			out = make([]*event.Event, 0, len(collected))
			for _, r := range collected {
				out = append(out, mapRowToDomain(r))
			}
			return nil
		})
	if err != nil {
		s.log.Error(ctx, "store operation failed", "operation", "List", "error", err)
		return nil, err
	}

	return out, nil
}

// Delete permanently removes an event. Every row owned by the event goes
// with it through the schema's cascading foreign keys.
func (s *eventStore) Delete(ctx context.Context, id int64) error {
	err := storage.ExecuteAndTrace(ctx, s.tracer, "eventStore.Delete",
		[]attribute.KeyValue{
			attribute.String("db.system", "postgresql"),
			attribute.Int64("event.id", id),
		},
		func(ctx context.Context) error {
			tag, err := s.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return event.ErrEventNotFound
			}
			return nil
		})
	if err != nil && !errors.Is(err, event.ErrEventNotFound) {
		s.log.Error(ctx, "store operation failed", "operation", "Delete", "event_id", id, "error", err)
	}
	return err
}

func mapRowToDomain(r *eventRow) *event.Event {
	return &event.Event{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		Venue:     r.Venue,
		Date:      r.EventDate,
		Status:    event.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
