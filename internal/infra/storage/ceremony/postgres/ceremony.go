// Package postgres provides the PostgreSQL implementation of the ceremony
// repository on top of the event-scoped store base.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/ceremony"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

var _ ceremony.Repository = (*ceremonyStore)(nil)

const (
	colID           = "id"
	colEventID      = "event_id"
	colName         = "name"
	colCeremonyDate = "ceremony_date"
	colStartsAt     = "starts_at"
	colEndsAt       = "ends_at"
	colLocation     = "location"
)

var ceremonySchema = scoped.Schema{
	Table:        "ceremonies",
	IDColumn:     colID,
	TenantColumn: colEventID,
	Columns: []string{
		colID, colEventID, colName, colCeremonyDate, colStartsAt, colEndsAt,
		colLocation, "created_at",
	},
}

type ceremonyRow struct {
	ID           int64     `db:"id"`
	EventID      int64     `db:"event_id"`
	Name         string    `db:"name"`
	CeremonyDate time.Time `db:"ceremony_date"`
	StartsAt     time.Time `db:"starts_at"`
	EndsAt       time.Time `db:"ends_at"`
	Location     string    `db:"location"`
	CreatedAt    time.Time `db:"created_at"`
}

type ceremonyStore struct {
	base   *scoped.Store[ceremonyRow, ceremony.Insert]
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
}

// NewCeremonyStore creates a ceremony.Repository backed by PostgreSQL.
func NewCeremonyStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) ceremony.Repository {
	base := scoped.MustNew(pool, log, tracer, scoped.Config[ceremonyRow, ceremony.Insert]{
		Schema: ceremonySchema,
		InsertColumns: []string{
			colName, colCeremonyDate, colStartsAt, colEndsAt, colLocation,
		},
		InsertValues: func(in ceremony.Insert) []any {
			return []any{in.Name, in.Date, in.StartsAt, in.EndsAt, in.Location}
		},
	})
	return &ceremonyStore{
		base:   base,
		pool:   pool,
		log:    log.With("entity", "ceremonies"),
		tracer: tracer,
	}
}

// FindByID retrieves a ceremony by id within the event.
func (s *ceremonyStore) FindByID(ctx context.Context, id, eventID int64) (*ceremony.Ceremony, error) {
	row, err := s.base.GetByID(ctx, id, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// ListByEvent returns every ceremony of the event ordered by schedule.
func (s *ceremonyStore) ListByEvent(ctx context.Context, eventID int64) ([]*ceremony.Ceremony, error) {
	pred, err := s.base.Builder().TenantScope(eventID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, eventID, "ceremonies.ListByEvent",
		"SELECT "+ceremonySchema.SelectList()+" FROM ceremonies WHERE event_id = $1 ORDER BY ceremony_date, starts_at",
		pred.Args...)
}

// ListByDateRange returns the event's ceremonies with dates in [from, to].
func (s *ceremonyStore) ListByDateRange(ctx context.Context, from, to time.Time, eventID int64) ([]*ceremony.Ceremony, error) {
	if _, err := s.base.Builder().TenantScope(eventID); err != nil {
		return nil, err
	}
	return s.list(ctx, eventID, "ceremonies.ListByDateRange",
		"SELECT "+ceremonySchema.SelectList()+" FROM ceremonies WHERE event_id = $1 AND ceremony_date BETWEEN $2 AND $3 ORDER BY ceremony_date, starts_at",
		eventID, from, to)
}

// ListUpcoming returns up to limit ceremonies on or after the given day.
func (s *ceremonyStore) ListUpcoming(ctx context.Context, from time.Time, limit int, eventID int64) ([]*ceremony.Ceremony, error) {
	if _, err := s.base.Builder().TenantScope(eventID); err != nil {
		return nil, err
	}
	return s.list(ctx, eventID, "ceremonies.ListUpcoming",
		"SELECT "+ceremonySchema.SelectList()+" FROM ceremonies WHERE event_id = $1 AND ceremony_date >= $2 ORDER BY ceremony_date, starts_at LIMIT $3",
		eventID, from, limit)
}

func (s *ceremonyStore) list(ctx context.Context, eventID int64, spanName, query string, args ...any) ([]*ceremony.Ceremony, error) {
	var out []*ceremony.Ceremony
	err := storage.ExecuteAndTrace(ctx, s.tracer, spanName,
		storage.DBAttributes("ceremonies", eventID),
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			collected, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[ceremonyRow])
			if err != nil {
				return err
			}
			out = mapRowsToDomain(collected)
			return nil
		})
	if err != nil {
		s.log.Error(ctx, "store operation failed", "operation", spanName, "event_id", eventID, "error", err)
		return nil, err
	}
	return out, nil
}

// Create inserts a ceremony under the event.
func (s *ceremonyStore) Create(ctx context.Context, in ceremony.Insert, eventID int64) (*ceremony.Ceremony, error) {
	row, err := s.base.Create(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowToDomain(row), nil
}

// CreateBatch inserts many ceremonies in one statement. Empty input is a no-op.
func (s *ceremonyStore) CreateBatch(ctx context.Context, in []ceremony.Insert, eventID int64) ([]*ceremony.Ceremony, error) {
	rows, err := s.base.CreateBatch(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Update applies a partial update within the event.
func (s *ceremonyStore) Update(ctx context.Context, id int64, upd ceremony.Update, eventID int64) (*ceremony.Ceremony, error) {
	assigns := make([]scoped.Assignment, 0, 5)
	if upd.Name != nil {
		assigns = append(assigns, scoped.Assignment{Column: colName, Value: *upd.Name})
	}
	if upd.Date != nil {
		assigns = append(assigns, scoped.Assignment{Column: colCeremonyDate, Value: *upd.Date})
	}
	if upd.StartsAt != nil {
		assigns = append(assigns, scoped.Assignment{Column: colStartsAt, Value: *upd.StartsAt})
	}
	if upd.EndsAt != nil {
		assigns = append(assigns, scoped.Assignment{Column: colEndsAt, Value: *upd.EndsAt})
	}
	if upd.Location != nil {
		assigns = append(assigns, scoped.Assignment{Column: colLocation, Value: *upd.Location})
	}

	row, err := s.base.Update(ctx, id, assigns, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// Delete removes a ceremony within the event.
func (s *ceremonyStore) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	return s.base.Delete(ctx, id, eventID)
}

// DeleteAllByEvent removes every ceremony of the event.
func (s *ceremonyStore) DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error) {
	return s.base.DeleteAllByEvent(ctx, eventID)
}

func mapNotFound(err error) error {
	if errors.Is(err, scoped.ErrNotFound) {
		return ceremony.ErrCeremonyNotFound
	}
	return err
}

func mapRowToDomain(r *ceremonyRow) *ceremony.Ceremony {
	return &ceremony.Ceremony{
		ID:        r.ID,
		EventID:   r.EventID,
		Name:      r.Name,
		Date:      r.CeremonyDate,
		StartsAt:  r.StartsAt,
		EndsAt:    r.EndsAt,
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}

func mapRowsToDomain(rows []*ceremonyRow) []*ceremony.Ceremony {
	out := make([]*ceremony.Ceremony, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapRowToDomain(r))
	}
	return out
}
