// Package postgres provides the PostgreSQL implementation of the
// accommodation repository on top of the event-scoped store base.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/accommodation"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

var _ accommodation.Repository = (*accommodationStore)(nil)

const (
	colID         = "id"
	colEventID    = "event_id"
	colName       = "name"
	colType       = "type"
	colTotalRooms = "total_rooms"
	colNotes      = "notes"
)

var accommodationSchema = scoped.Schema{
	Table:        "accommodations",
	IDColumn:     colID,
	TenantColumn: colEventID,
	Columns: []string{
		colID, colEventID, colName, colType, colTotalRooms,
		"allocated_rooms", colNotes, "created_at",
	},
}

type accommodationRow struct {
	ID             int64     `db:"id"`
	EventID        int64     `db:"event_id"`
	Name           string    `db:"name"`
	Type           string    `db:"type"`
	TotalRooms     int32     `db:"total_rooms"`
	AllocatedRooms int32     `db:"allocated_rooms"`
	Notes          string    `db:"notes"`
	CreatedAt      time.Time `db:"created_at"`
}

type accommodationStore struct {
	base   *scoped.Store[accommodationRow, accommodation.Insert]
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
}

// NewAccommodationStore creates an accommodation.Repository backed by
// PostgreSQL. The allocated-rooms counter is deliberately absent from the
// insert and update column sets: only the allocation store moves it.
func NewAccommodationStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) accommodation.Repository {
	base := scoped.MustNew(pool, log, tracer, scoped.Config[accommodationRow, accommodation.Insert]{
		Schema:        accommodationSchema,
		InsertColumns: []string{colName, colType, colTotalRooms, colNotes},
		InsertValues: func(in accommodation.Insert) []any {
			typ := in.Type
			if typ == "" {
				typ = accommodation.TypeHotel
			}
			return []any{in.Name, string(typ), in.TotalRooms, in.Notes}
		},
	})
	return &accommodationStore{
		base:   base,
		pool:   pool,
		log:    log.With("entity", "accommodations"),
		tracer: tracer,
	}
}

// FindByID retrieves an accommodation by id within the event.
func (s *accommodationStore) FindByID(ctx context.Context, id, eventID int64) (*accommodation.Accommodation, error) {
	row, err := s.base.GetByID(ctx, id, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// ListByEvent returns every accommodation of the event.
func (s *accommodationStore) ListByEvent(ctx context.Context, eventID int64) ([]*accommodation.Accommodation, error) {
	rows, err := s.base.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// GetStats aggregates room capacity across the event's accommodations.
// An event with no accommodations yields all zeros, not an error.
func (s *accommodationStore) GetStats(ctx context.Context, eventID int64) (*accommodation.Stats, error) {
	if _, err := s.base.Builder().TenantScope(eventID); err != nil {
		return nil, err
	}

	stats := &accommodation.Stats{}
	err := storage.ExecuteAndTrace(ctx, s.tracer, "accommodations.GetStats",
		storage.DBAttributes("accommodations", eventID),
		func(ctx context.Context) error {
			const query = `
				SELECT
					COALESCE(SUM(total_rooms), 0),
					COALESCE(SUM(allocated_rooms), 0),
					COUNT(DISTINCT type)
				FROM accommodations
				WHERE event_id = $1
			`
			return s.pool.QueryRow(ctx, query, eventID).Scan(
				&stats.TotalRooms, &stats.AllocatedRooms, &stats.Types,
			)
		})
	if err != nil {
		s.log.Error(ctx, "store operation failed", "operation", "GetStats", "event_id", eventID, "error", err)
		return nil, err
	}

	stats.AvailableRooms = stats.TotalRooms - stats.AllocatedRooms
	return stats, nil
}

// ListWithAllocation returns each accommodation joined with the live count
// of room allocations referencing it.
func (s *accommodationStore) ListWithAllocation(ctx context.Context, eventID int64) ([]*accommodation.WithAllocation, error) {
	if _, err := s.base.Builder().TenantScope(eventID); err != nil {
		return nil, err
	}

	var out []*accommodation.WithAllocation
	err := storage.ExecuteAndTrace(ctx, s.tracer, "accommodations.ListWithAllocation",
		storage.DBAttributes("accommodations", eventID),
		func(ctx context.Context) error {
			const query = `
				SELECT
					a.id, a.event_id, a.name, a.type, a.total_rooms,
					a.allocated_rooms, a.notes, a.created_at,
					COUNT(ra.id) AS guests_assigned
				FROM accommodations a
				LEFT JOIN room_allocations ra ON ra.accommodation_id = a.id
				WHERE a.event_id = $1
				GROUP BY a.id
				ORDER BY a.id
			`
			rows, err := s.pool.Query(ctx, query, eventID)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var (
					r        accommodationRow
					assigned int64
				)
				if err := rows.Scan(
					&r.ID, &r.EventID, &r.Name, &r.Type, &r.TotalRooms,
					&r.AllocatedRooms, &r.Notes, &r.CreatedAt, &assigned,
				); err != nil {
					return err
				}
				out = append(out, &accommodation.WithAllocation{
					Accommodation:  *mapRowToDomain(&r),
					GuestsAssigned: assigned,
					Available:      r.TotalRooms - r.AllocatedRooms,
				})
			}
			return rows.Err()
		})
	if err != nil {
		s.log.Error(ctx, "store operation failed", "operation", "ListWithAllocation", "event_id", eventID, "error", err)
		return nil, err
	}

	return out, nil
}

// ListAvailable returns accommodations with at least one free room.
func (s *accommodationStore) ListAvailable(ctx context.Context, eventID int64) ([]*accommodation.Accommodation, error) {
	rows, err := s.base.GetAllByEvent(ctx, eventID,
		scoped.Predicate{Expr: "total_rooms > allocated_rooms"})
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Create inserts an accommodation under the event.
func (s *accommodationStore) Create(ctx context.Context, in accommodation.Insert, eventID int64) (*accommodation.Accommodation, error) {
	row, err := s.base.Create(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowToDomain(row), nil
}

// CreateBatch inserts many accommodations in one statement.
func (s *accommodationStore) CreateBatch(ctx context.Context, in []accommodation.Insert, eventID int64) ([]*accommodation.Accommodation, error) {
	rows, err := s.base.CreateBatch(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Update applies a partial update within the event. The allocated-rooms
// counter cannot be set through here.
func (s *accommodationStore) Update(ctx context.Context, id int64, upd accommodation.Update, eventID int64) (*accommodation.Accommodation, error) {
	assigns := make([]scoped.Assignment, 0, 4)
	if upd.Name != nil {
		assigns = append(assigns, scoped.Assignment{Column: colName, Value: *upd.Name})
	}
	if upd.Type != nil {
		assigns = append(assigns, scoped.Assignment{Column: colType, Value: string(*upd.Type)})
	}
	if upd.TotalRooms != nil {
		assigns = append(assigns, scoped.Assignment{Column: colTotalRooms, Value: *upd.TotalRooms})
	}
	if upd.Notes != nil {
		assigns = append(assigns, scoped.Assignment{Column: colNotes, Value: *upd.Notes})
	}

	row, err := s.base.Update(ctx, id, assigns, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// Delete removes an accommodation within the event.
func (s *accommodationStore) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	return s.base.Delete(ctx, id, eventID)
}

// DeleteAllByEvent removes every accommodation of the event.
func (s *accommodationStore) DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error) {
	return s.base.DeleteAllByEvent(ctx, eventID)
}

func mapNotFound(err error) error {
	if errors.Is(err, scoped.ErrNotFound) {
		return accommodation.ErrAccommodationNotFound
	}
	return err
}

func mapRowToDomain(r *accommodationRow) *accommodation.Accommodation {
	return &accommodation.Accommodation{
		ID:             r.ID,
		EventID:        r.EventID,
		Name:           r.Name,
		Type:           accommodation.Type(r.Type),
		TotalRooms:     r.TotalRooms,
		AllocatedRooms: r.AllocatedRooms,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
	}
}

func mapRowsToDomain(rows []*accommodationRow) []*accommodation.Accommodation {
	out := make([]*accommodation.Accommodation, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapRowToDomain(r))
	}
	return out
}
