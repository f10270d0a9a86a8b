// Package postgres provides the PostgreSQL implementation of the meal
// repository: event-scoped meal options plus guest meal selections, whose
// event membership is established transitively through guest, ceremony,
// and option.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/meal"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

var _ meal.Repository = (*mealStore)(nil)

const (
	colID          = "id"
	colEventID     = "event_id"
	colCeremonyID  = "ceremony_id"
	colName        = "name"
	colDescription = "description"
	colDietary     = "dietary"
)

var optionSchema = scoped.Schema{
	Table:        "meal_options",
	IDColumn:     colID,
	TenantColumn: colEventID,
	Columns: []string{
		colID, colEventID, colCeremonyID, colName, colDescription,
		colDietary, "created_at",
	},
}

type optionRow struct {
	ID          int64     `db:"id"`
	EventID     int64     `db:"event_id"`
	CeremonyID  int64     `db:"ceremony_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Dietary     string    `db:"dietary"`
	CreatedAt   time.Time `db:"created_at"`
}

type selectionRow struct {
	ID           int64     `db:"id"`
	GuestID      int64     `db:"guest_id"`
	MealOptionID int64     `db:"meal_option_id"`
	CeremonyID   int64     `db:"ceremony_id"`
	Notes        string    `db:"notes"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type mealStore struct {
	base   *scoped.Store[optionRow, meal.OptionInsert]
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
}

// NewMealStore creates a meal.Repository backed by PostgreSQL.
func NewMealStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) meal.Repository {
	base := scoped.MustNew(pool, log, tracer, scoped.Config[optionRow, meal.OptionInsert]{
		Schema:        optionSchema,
		InsertColumns: []string{colCeremonyID, colName, colDescription, colDietary},
		InsertValues: func(in meal.OptionInsert) []any {
			dietary := in.Dietary
			if dietary == "" {
				dietary = meal.DietaryOmnivore
			}
			return []any{in.CeremonyID, in.Name, in.Description, string(dietary)}
		},
	})
	return &mealStore{
		base:   base,
		pool:   pool,
		log:    log.With("entity", "meal_options"),
		tracer: tracer,
	}
}

// FindOptionByID retrieves a meal option by id within the event.
func (s *mealStore) FindOptionByID(ctx context.Context, id, eventID int64) (*meal.Option, error) {
	row, err := s.base.GetByID(ctx, id, eventID)
	if err != nil {
		if errors.Is(err, scoped.ErrNotFound) {
			return nil, meal.ErrOptionNotFound
		}
		return nil, err
	}
	return mapOptionToDomain(row), nil
}

// ListOptionsByEvent returns every meal option of the event.
func (s *mealStore) ListOptionsByEvent(ctx context.Context, eventID int64) ([]*meal.Option, error) {
	rows, err := s.base.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return mapOptionsToDomain(rows), nil
}

// OptionsForCeremony returns the options offered at a ceremony. A ceremony
// that does not belong to the event yields an empty result, not an error.
func (s *mealStore) OptionsForCeremony(ctx context.Context, ceremonyID, eventID int64) ([]*meal.Option, error) {
	if err := validateScope(ceremonyID, eventID); err != nil {
		return nil, err
	}

	owned, err := s.parentInEvent(ctx, "ceremonies", ceremonyID, eventID)
	if err != nil {
		return nil, s.fail(ctx, "OptionsForCeremony", eventID, err)
	}
	if !owned {
		return []*meal.Option{}, nil
	}

	pred, err := s.base.Builder().Equal(colCeremonyID, ceremonyID)
	if err != nil {
		return nil, err
	}
	rows, err := s.base.GetAllByEvent(ctx, eventID, pred)
	if err != nil {
		return nil, err
	}
	return mapOptionsToDomain(rows), nil
}

// OptionsWithCounts returns each of a ceremony's options joined with the
// number of selections referencing it. Selections only count when their
// guest belongs to the event, so a stray cross-event row can never inflate
// a count.
func (s *mealStore) OptionsWithCounts(ctx context.Context, ceremonyID, eventID int64) ([]*meal.OptionWithCount, error) {
	if err := validateScope(ceremonyID, eventID); err != nil {
		return nil, err
	}

	var out []*meal.OptionWithCount
	err := storage.ExecuteAndTrace(ctx, s.tracer, "meal_options.OptionsWithCounts",
		storage.DBAttributes("meal_options", eventID),
		func(ctx context.Context) error {
			const query = `
				SELECT
					mo.id, mo.event_id, mo.ceremony_id, mo.name, mo.description,
					mo.dietary, mo.created_at,
					COUNT(gms.id) FILTER (WHERE g.event_id = $2) AS selections
				FROM meal_options mo
				LEFT JOIN guest_meal_selections gms ON gms.meal_option_id = mo.id
				LEFT JOIN guests g ON g.id = gms.guest_id
				WHERE mo.ceremony_id = $1 AND mo.event_id = $2
				GROUP BY mo.id
				ORDER BY mo.id
			`
			rows, err := s.pool.Query(ctx, query, ceremonyID, eventID)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var (
					r     optionRow
					count int64
				)
				if err := rows.Scan(
					&r.ID, &r.EventID, &r.CeremonyID, &r.Name, &r.Description,
					&r.Dietary, &r.CreatedAt, &count,
				); err != nil {
					return err
				}
				out = append(out, &meal.OptionWithCount{
					Option:     *mapOptionToDomain(&r),
					Selections: count,
				})
			}
			return rows.Err()
		})
	if err != nil {
		return nil, s.fail(ctx, "OptionsWithCounts", eventID, err)
	}

	return out, nil
}

// CreateOption inserts a meal option after verifying the ceremony belongs
// to the event.
func (s *mealStore) CreateOption(ctx context.Context, in meal.OptionInsert, eventID int64) (*meal.Option, error) {
	if err := validateScope(in.CeremonyID, eventID); err != nil {
		return nil, err
	}

	owned, err := s.parentInEvent(ctx, "ceremonies", in.CeremonyID, eventID)
	if err != nil {
		return nil, s.fail(ctx, "CreateOption", eventID, err)
	}
	if !owned {
		return nil, &scoped.CrossTenantError{Entity: "ceremony", ID: in.CeremonyID, EventID: eventID}
	}

	row, err := s.base.Create(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapOptionToDomain(row), nil
}

// UpdateOption applies a partial update within the event.
func (s *mealStore) UpdateOption(ctx context.Context, id int64, upd meal.OptionUpdate, eventID int64) (*meal.Option, error) {
	assigns := make([]scoped.Assignment, 0, 3)
	if upd.Name != nil {
		assigns = append(assigns, scoped.Assignment{Column: colName, Value: *upd.Name})
	}
	if upd.Description != nil {
		assigns = append(assigns, scoped.Assignment{Column: colDescription, Value: *upd.Description})
	}
	if upd.Dietary != nil {
		assigns = append(assigns, scoped.Assignment{Column: colDietary, Value: string(*upd.Dietary)})
	}

	row, err := s.base.Update(ctx, id, assigns, eventID)
	if err != nil {
		if errors.Is(err, scoped.ErrNotFound) {
			return nil, meal.ErrOptionNotFound
		}
		return nil, err
	}
	return mapOptionToDomain(row), nil
}

// DeleteOption removes a meal option within the event.
func (s *mealStore) DeleteOption(ctx context.Context, id, eventID int64) (bool, error) {
	return s.base.Delete(ctx, id, eventID)
}

// DeleteAllOptionsByEvent removes every meal option of the event.
func (s *mealStore) DeleteAllOptionsByEvent(ctx context.Context, eventID int64) (int64, error) {
	return s.base.DeleteAllByEvent(ctx, eventID)
}

// SelectionsForGuest returns a guest's selections joined with option and
// ceremony metadata. A guest outside the event yields an empty result.
func (s *mealStore) SelectionsForGuest(ctx context.Context, guestID, eventID int64) ([]*meal.SelectionDetail, error) {
	if err := validateScope(guestID, eventID); err != nil {
		return nil, err
	}

	owned, err := s.parentInEvent(ctx, "guests", guestID, eventID)
	if err != nil {
		return nil, s.fail(ctx, "SelectionsForGuest", eventID, err)
	}
	if !owned {
		return []*meal.SelectionDetail{}, nil
	}

	var out []*meal.SelectionDetail
	err = storage.ExecuteAndTrace(ctx, s.tracer, "guest_meal_selections.SelectionsForGuest",
		storage.DBAttributes("guest_meal_selections", eventID),
		func(ctx context.Context) error {
			const query = `
				SELECT
					gms.id, gms.guest_id, gms.meal_option_id, gms.ceremony_id,
					gms.notes, gms.created_at, gms.updated_at,
					mo.name, mo.description, mo.dietary,
					c.name, c.ceremony_date
				FROM guest_meal_selections gms
				JOIN meal_options mo ON mo.id = gms.meal_option_id
				JOIN ceremonies c ON c.id = gms.ceremony_id
				WHERE gms.guest_id = $1 AND mo.event_id = $2 AND c.event_id = $2
				ORDER BY c.ceremony_date, gms.id
			`
			rows, err := s.pool.Query(ctx, query, guestID, eventID)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var (
					r       selectionRow
					detail  meal.SelectionDetail
					dietary string
				)
				if err := rows.Scan(
					&r.ID, &r.GuestID, &r.MealOptionID, &r.CeremonyID,
					&r.Notes, &r.CreatedAt, &r.UpdatedAt,
					&detail.OptionName, &detail.OptionDescription, &dietary,
					&detail.CeremonyName, &detail.CeremonyDate,
				); err != nil {
					return err
				}
				detail.Selection = *mapSelectionToDomain(&r)
				detail.OptionDietary = meal.Dietary(dietary)
				out = append(out, &detail)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, s.fail(ctx, "SelectionsForGuest", eventID, err)
	}

	return out, nil
}

// UpsertSelection records a guest's meal choice for a ceremony. The
// (guest, ceremony) pair is the natural key: an existing row is updated in
// place through the unique constraint, so two rows can never exist for one
// pair. Guest, ceremony, and option must each belong to the event, and the
// option must be offered at the given ceremony.
func (s *mealStore) UpsertSelection(ctx context.Context, guestID, mealOptionID, ceremonyID int64, notes string, eventID int64) (*meal.Selection, error) {
	if err := validateScope(guestID, eventID); err != nil {
		return nil, err
	}
	if mealOptionID <= 0 || ceremonyID <= 0 {
		return nil, fmt.Errorf("option %d, ceremony %d: %w", mealOptionID, ceremonyID, scoped.ErrInvalidID)
	}

	var row *selectionRow
	err := storage.ExecuteAndTrace(ctx, s.tracer, "guest_meal_selections.UpsertSelection",
		storage.DBAttributes("guest_meal_selections", eventID),
		func(ctx context.Context) error {
			if owned, err := s.parentInEvent(ctx, "guests", guestID, eventID); err != nil {
				return err
			} else if !owned {
				return &scoped.CrossTenantError{Entity: "guest", ID: guestID, EventID: eventID}
			}
			if owned, err := s.parentInEvent(ctx, "ceremonies", ceremonyID, eventID); err != nil {
				return err
			} else if !owned {
				return &scoped.CrossTenantError{Entity: "ceremony", ID: ceremonyID, EventID: eventID}
			}

			// The option leg is scoped to both the event and the ceremony:
			// an option from another ceremony of the same event is as
			// invalid as one from another event.
			var optionOK bool
			if err := s.pool.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM meal_options WHERE id = $1 AND event_id = $2 AND ceremony_id = $3)",
				mealOptionID, eventID, ceremonyID,
			).Scan(&optionOK); err != nil {
				return err
			}
			if !optionOK {
				return &scoped.CrossTenantError{Entity: "meal option", ID: mealOptionID, EventID: eventID}
			}

			const upsert = `
				INSERT INTO guest_meal_selections (guest_id, meal_option_id, ceremony_id, notes)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (guest_id, ceremony_id)
				DO UPDATE SET meal_option_id = EXCLUDED.meal_option_id,
				              notes = EXCLUDED.notes,
				              updated_at = now()
				RETURNING id, guest_id, meal_option_id, ceremony_id, notes, created_at, updated_at
			`
			rows, err := s.pool.Query(ctx, upsert, guestID, mealOptionID, ceremonyID, notes)
			if err != nil {
				return err
			}
			row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[selectionRow])
			return err
		})
	if err != nil {
		if errors.Is(err, scoped.ErrCrossTenant) {
			return nil, err
		}
		return nil, s.fail(ctx, "UpsertSelection", eventID, err)
	}

	return mapSelectionToDomain(row), nil
}

// DeleteSelection removes a selection after verifying ownership across its
// guest, option, and ceremony legs. Reports false if any leg fails.
func (s *mealStore) DeleteSelection(ctx context.Context, selectionID, eventID int64) (bool, error) {
	if err := validateScope(selectionID, eventID); err != nil {
		return false, err
	}

	var deleted bool
	err := storage.ExecuteAndTrace(ctx, s.tracer, "guest_meal_selections.DeleteSelection",
		storage.DBAttributes("guest_meal_selections", eventID),
		func(ctx context.Context) error {
			const query = `
				DELETE FROM guest_meal_selections gms
				USING guests g, meal_options mo, ceremonies c
				WHERE gms.id = $1
				  AND g.id = gms.guest_id AND g.event_id = $2
				  AND mo.id = gms.meal_option_id AND mo.event_id = $2
				  AND c.id = gms.ceremony_id AND c.event_id = $2
			`
			tag, err := s.pool.Exec(ctx, query, selectionID, eventID)
			if err != nil {
				return err
			}
			deleted = tag.RowsAffected() > 0
			return nil
		})
	if err != nil {
		return false, s.fail(ctx, "DeleteSelection", eventID, err)
	}

	return deleted, nil
}

// parentInEvent reports whether a parent row belongs to the event.
func (s *mealStore) parentInEvent(ctx context.Context, table string, id, eventID int64) (bool, error) {
	var ok bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND event_id = $2)", table)
	err := s.pool.QueryRow(ctx, query, id, eventID).Scan(&ok)
	return ok, err
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

func (s *mealStore) fail(ctx context.Context, op string, eventID int64, err error) error {
	s.log.Error(ctx, "store operation failed",
		"operation", op,
		"event_id", eventID,
		"error", err,
	)
	return err
}

func mapOptionToDomain(r *optionRow) *meal.Option {
	return &meal.Option{
		ID:          r.ID,
		EventID:     r.EventID,
		CeremonyID:  r.CeremonyID,
		Name:        r.Name,
		Description: r.Description,
		Dietary:     meal.Dietary(r.Dietary),
		CreatedAt:   r.CreatedAt,
	}
}

func mapOptionsToDomain(rows []*optionRow) []*meal.Option {
	out := make([]*meal.Option, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapOptionToDomain(r))
	}
	return out
}

func mapSelectionToDomain(r *selectionRow) *meal.Selection {
	return &meal.Selection{
		ID:           r.ID,
		GuestID:      r.GuestID,
		MealOptionID: r.MealOptionID,
		CeremonyID:   r.CeremonyID,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
