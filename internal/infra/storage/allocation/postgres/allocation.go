// Package postgres provides the PostgreSQL implementation of the room
// allocation repository. Room allocations carry no event column, so every
// operation establishes event membership through the referenced guest and
// accommodation before reading or writing, and every write keeps the
// accommodation's allocated-rooms counter in step with the rows inside one
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/allocation"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

var _ allocation.Repository = (*allocationStore)(nil)

const allocationColumns = "id, guest_id, accommodation_id, room_label, notes, created_at"

type allocationRow struct {
	ID              int64     `db:"id"`
	GuestID         int64     `db:"guest_id"`
	AccommodationID int64     `db:"accommodation_id"`
	RoomLabel       string    `db:"room_label"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
}

type allocationStore struct {
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
}

// NewAllocationStore creates an allocation.Repository backed by PostgreSQL.
func NewAllocationStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) allocation.Repository {
	return &allocationStore{
		pool:   pool,
		log:    log.With("entity", "room_allocations"),
		tracer: tracer,
	}
}

// FindByID retrieves an allocation whose guest and accommodation both
// belong to the event. Ownership is established through the triple join;
// an allocation visible under another event maps to ErrAllocationNotFound.
func (s *allocationStore) FindByID(ctx context.Context, id, eventID int64) (*allocation.RoomAllocation, error) {
	if err := validateScope(id, eventID); err != nil {
		return nil, err
	}

	var row *allocationRow
	err := storage.ExecuteAndTrace(ctx, s.tracer, "room_allocations.FindByID",
		storage.DBAttributes("room_allocations", eventID),
		func(ctx context.Context) error {
			const query = `
				SELECT ra.id, ra.guest_id, ra.accommodation_id, ra.room_label, ra.notes, ra.created_at
				FROM room_allocations ra
				JOIN guests g ON g.id = ra.guest_id
				JOIN accommodations a ON a.id = ra.accommodation_id
				WHERE ra.id = $1 AND g.event_id = $2 AND a.event_id = $2
			`
			rows, err := s.pool.Query(ctx, query, id, eventID)
			if err != nil {
				return err
			}
			row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[allocationRow])
			return err
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, allocation.ErrAllocationNotFound
		}
		return nil, s.fail(ctx, "FindByID", eventID, err)
	}

	return mapRowToDomain(row), nil
}

// ListByGuest returns the allocations of a guest. A guest that does not
// belong to the event yields an empty result, not an error: the join
// against the guest's event column simply matches nothing.
func (s *allocationStore) ListByGuest(ctx context.Context, guestID, eventID int64) ([]*allocation.RoomAllocation, error) {
	const query = `
		SELECT ra.id, ra.guest_id, ra.accommodation_id, ra.room_label, ra.notes, ra.created_at
		FROM room_allocations ra
		JOIN guests g ON g.id = ra.guest_id
		WHERE ra.guest_id = $1 AND g.event_id = $2
		ORDER BY ra.id
	`
	return s.list(ctx, "ListByGuest", query, guestID, eventID)
}

// ListByAccommodation returns the allocations of an accommodation, empty
// if the accommodation does not belong to the event.
func (s *allocationStore) ListByAccommodation(ctx context.Context, accommodationID, eventID int64) ([]*allocation.RoomAllocation, error) {
	const query = `
		SELECT ra.id, ra.guest_id, ra.accommodation_id, ra.room_label, ra.notes, ra.created_at
		FROM room_allocations ra
		JOIN accommodations a ON a.id = ra.accommodation_id
		WHERE ra.accommodation_id = $1 AND a.event_id = $2
		ORDER BY ra.id
	`
	return s.list(ctx, "ListByAccommodation", query, accommodationID, eventID)
}

func (s *allocationStore) list(ctx context.Context, op, query string, parentID, eventID int64) ([]*allocation.RoomAllocation, error) {
	if err := validateScope(parentID, eventID); err != nil {
		return nil, err
	}

	var out []*allocation.RoomAllocation
	err := storage.ExecuteAndTrace(ctx, s.tracer, "room_allocations."+op,
		storage.DBAttributes("room_allocations", eventID),
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, query, parentID, eventID)
			if err != nil {
				return err
			}
			collected, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[allocationRow])
			if err != nil {
				return err
			}
			out = mapRowsToDomain(collected)
			return nil
		})
	if err != nil {
		return nil, s.fail(ctx, op, eventID, err)
	}

	return out, nil
}

// Create inserts an allocation after verifying both the guest and the
// accommodation belong to the event, and increments the accommodation's
// allocated-rooms counter. Row insert and counter move commit together:
// a failure in either leaves both untouched.
func (s *allocationStore) Create(ctx context.Context, in allocation.Insert, eventID int64) (*allocation.RoomAllocation, error) {
	if err := validateScope(in.GuestID, eventID); err != nil {
		return nil, err
	}
	if in.AccommodationID <= 0 {
		return nil, fmt.Errorf("id %d: %w", in.AccommodationID, scoped.ErrInvalidID)
	}

	var row *allocationRow
	err := storage.ExecuteAndTrace(ctx, s.tracer, "room_allocations.Create",
		storage.DBAttributes("room_allocations", eventID),
		func(ctx context.Context) error {
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				if err := verifyParent(ctx, tx, "guest", "guests", in.GuestID, eventID); err != nil {
					return err
				}
				if err := verifyParent(ctx, tx, "accommodation", "accommodations", in.AccommodationID, eventID); err != nil {
					return err
				}

				const insert = `
					INSERT INTO room_allocations (guest_id, accommodation_id, room_label, notes)
					VALUES ($1, $2, $3, $4)
					RETURNING ` + allocationColumns
				rows, err := tx.Query(ctx, insert, in.GuestID, in.AccommodationID, in.RoomLabel, in.Notes)
				if err != nil {
					return err
				}
				row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[allocationRow])
				if err != nil {
					return err
				}

				return adjustCounter(ctx, tx, in.AccommodationID, +1)
			})
		})
	if err != nil {
		if errors.Is(err, scoped.ErrCrossTenant) {
			return nil, err
		}
		return nil, s.fail(ctx, "Create", eventID, err)
	}

	return mapRowToDomain(row), nil
}

// Update mutates an allocation after re-verifying ownership through the
// allocation, its guest, and its accommodation together. Moving the
// allocation to another accommodation decrements the old counter and
// increments the new one in the same transaction; changing the guest
// re-verifies the new guest's event membership.
func (s *allocationStore) Update(ctx context.Context, id int64, upd allocation.Update, eventID int64) (*allocation.RoomAllocation, error) {
	if err := validateScope(id, eventID); err != nil {
		return nil, err
	}

	var row *allocationRow
	err := storage.ExecuteAndTrace(ctx, s.tracer, "room_allocations.Update",
		storage.DBAttributes("room_allocations", eventID),
		func(ctx context.Context) error {
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				current, err := lockAllocation(ctx, tx, id, eventID)
				if err != nil {
					return err
				}

				guestID := current.GuestID
				if upd.GuestID != nil && *upd.GuestID != current.GuestID {
					if err := verifyParent(ctx, tx, "guest", "guests", *upd.GuestID, eventID); err != nil {
						return err
					}
					guestID = *upd.GuestID
				}

				accommodationID := current.AccommodationID
				if upd.AccommodationID != nil && *upd.AccommodationID != current.AccommodationID {
					if err := verifyParent(ctx, tx, "accommodation", "accommodations", *upd.AccommodationID, eventID); err != nil {
						return err
					}
					accommodationID = *upd.AccommodationID
				}

				roomLabel := current.RoomLabel
				if upd.RoomLabel != nil {
					roomLabel = *upd.RoomLabel
				}
				notes := current.Notes
				if upd.Notes != nil {
					notes = *upd.Notes
				}

				const update = `
					UPDATE room_allocations
					SET guest_id = $2, accommodation_id = $3, room_label = $4, notes = $5
					WHERE id = $1
					RETURNING ` + allocationColumns
				rows, err := tx.Query(ctx, update, id, guestID, accommodationID, roomLabel, notes)
				if err != nil {
					return err
				}
				row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[allocationRow])
				if err != nil {
					return err
				}

				if accommodationID != current.AccommodationID {
					if err := adjustCounter(ctx, tx, current.AccommodationID, -1); err != nil {
						return err
					}
					if err := adjustCounter(ctx, tx, accommodationID, +1); err != nil {
						return err
					}
				}
				return nil
			})
		})
	if err != nil {
		if errors.Is(err, allocation.ErrAllocationNotFound) || errors.Is(err, scoped.ErrCrossTenant) {
			return nil, err
		}
		return nil, s.fail(ctx, "Update", eventID, err)
	}

	return mapRowToDomain(row), nil
}

// Delete removes an allocation and decrements its accommodation's counter,
// clamped at zero, in one transaction. Reports false when the allocation
// does not exist under the event.
func (s *allocationStore) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	if err := validateScope(id, eventID); err != nil {
		return false, err
	}

	var deleted bool
	err := storage.ExecuteAndTrace(ctx, s.tracer, "room_allocations.Delete",
		storage.DBAttributes("room_allocations", eventID),
		func(ctx context.Context) error {
			return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
				current, err := lockAllocation(ctx, tx, id, eventID)
				if err != nil {
					if errors.Is(err, allocation.ErrAllocationNotFound) {
						return nil
					}
					return err
				}

				if _, err := tx.Exec(ctx, "DELETE FROM room_allocations WHERE id = $1", id); err != nil {
					return err
				}
				if err := adjustCounter(ctx, tx, current.AccommodationID, -1); err != nil {
					return err
				}
				deleted = true
				return nil
			})
		})
	if err != nil {
		return false, s.fail(ctx, "Delete", eventID, err)
	}

	return deleted, nil
}

// lockAllocation loads an allocation through the ownership triple join and
// locks the row for the remainder of the transaction.
func lockAllocation(ctx context.Context, tx pgx.Tx, id, eventID int64) (*allocationRow, error) {
	const query = `
		SELECT ra.id, ra.guest_id, ra.accommodation_id, ra.room_label, ra.notes, ra.created_at
		FROM room_allocations ra
		JOIN guests g ON g.id = ra.guest_id
		JOIN accommodations a ON a.id = ra.accommodation_id
		WHERE ra.id = $1 AND g.event_id = $2 AND a.event_id = $2
		FOR UPDATE OF ra
	`
	rows, err := tx.Query(ctx, query, id, eventID)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[allocationRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, allocation.ErrAllocationNotFound
		}
		return nil, err
	}
	return row, nil
}

// verifyParent checks that a referenced parent row belongs to the event,
// returning a CrossTenantError naming the offending entity otherwise.
func verifyParent(ctx context.Context, tx pgx.Tx, entity, table string, id, eventID int64) error {
	var ok bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND event_id = $2)", table)
	if err := tx.QueryRow(ctx, query, id, eventID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return &scoped.CrossTenantError{Entity: entity, ID: id, EventID: eventID}
	}
	return nil
}

// adjustCounter moves an accommodation's allocated-rooms counter by delta,
// clamped at zero.
func adjustCounter(ctx context.Context, tx pgx.Tx, accommodationID int64, delta int32) error {
	const query = `
		UPDATE accommodations
		SET allocated_rooms = GREATEST(0, allocated_rooms + $2)
		WHERE id = $1
	`
	_, err := tx.Exec(ctx, query, accommodationID, delta)
	return err
}

func validateScope(id, eventID int64) error {
	if eventID <= 0 {
		return fmt.Errorf("event id %d: %w", eventID, scoped.ErrInvalidTenant)
	}
	if id <= 0 {
		return fmt.Errorf("id %d: %w", id, scoped.ErrInvalidID)
	}
	return nil
}

func (s *allocationStore) fail(ctx context.Context, op string, eventID int64, err error) error {
	s.log.Error(ctx, "store operation failed",
		"operation", op,
		"event_id", eventID,
		"error", err,
	)
	return err
}

func mapRowToDomain(r *allocationRow) *allocation.RoomAllocation {
	return &allocation.RoomAllocation{
		ID:              r.ID,
		GuestID:         r.GuestID,
		AccommodationID: r.AccommodationID,
		RoomLabel:       r.RoomLabel,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
	}
}

func mapRowsToDomain(rows []*allocationRow) []*allocation.RoomAllocation {
	out := make([]*allocation.RoomAllocation, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapRowToDomain(r))
	}
	return out
}
