// Package postgres provides the PostgreSQL implementation of the guest
// repository on top of the event-scoped store base.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/guest"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
	"github.com/wedlockhq/wedlock/pkg/common/timeutil"
)

var _ guest.Repository = (*guestStore)(nil)

// Column names of the guests table. Declared as constants so a typo is
// caught when the store is constructed, not silently at query time.
const (
	colID                 = "id"
	colEventID            = "event_id"
	colFirstName          = "first_name"
	colLastName           = "last_name"
	colEmail              = "email"
	colPhone              = "phone"
	colRSVPStatus         = "rsvp_status"
	colPlusOne            = "plus_one"
	colPlusOneName        = "plus_one_name"
	colChildrenDetails    = "children_details"
	colNeedsAccommodation = "needs_accommodation"
	colRSVPCode           = "rsvp_code"
)

var guestSchema = scoped.Schema{
	Table:        "guests",
	IDColumn:     colID,
	TenantColumn: colEventID,
	Columns: []string{
		colID, colEventID, colFirstName, colLastName, colEmail, colPhone,
		colRSVPStatus, colPlusOne, colPlusOneName, colChildrenDetails,
		colNeedsAccommodation, colRSVPCode, "created_at", "updated_at",
	},
}

type guestRow struct {
	ID                 int64      `db:"id"`
	EventID            int64      `db:"event_id"`
	FirstName          string     `db:"first_name"`
	LastName           string     `db:"last_name"`
	Email              string     `db:"email"`
	Phone              string     `db:"phone"`
	RSVPStatus         string     `db:"rsvp_status"`
	PlusOne            bool       `db:"plus_one"`
	PlusOneName        *string    `db:"plus_one_name"`
	ChildrenDetails    []byte     `db:"children_details"`
	NeedsAccommodation bool       `db:"needs_accommodation"`
	RSVPCode           uuid.UUID  `db:"rsvp_code"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at"`
}

// guestInsert is the row-level insert payload with children already
// JSON-encoded for the jsonb column.
type guestInsert struct {
	firstName          string
	lastName           string
	email              string
	phone              string
	rsvpStatus         string
	plusOne            bool
	plusOneName        *string
	childrenDetails    []byte
	needsAccommodation bool
	rsvpCode           uuid.UUID
}

type guestStore struct {
	base   *scoped.Store[guestRow, guestInsert]
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
	clock  timeutil.Provider
}

// NewGuestStore creates a guest.Repository backed by PostgreSQL.
func NewGuestStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) guest.Repository {
	base := scoped.MustNew(pool, log, tracer, scoped.Config[guestRow, guestInsert]{
		Schema: guestSchema,
		InsertColumns: []string{
			colFirstName, colLastName, colEmail, colPhone, colRSVPStatus,
			colPlusOne, colPlusOneName, colChildrenDetails,
			colNeedsAccommodation, colRSVPCode,
		},
		InsertValues: func(in guestInsert) []any {
			return []any{
				in.firstName, in.lastName, in.email, in.phone, in.rsvpStatus,
				in.plusOne, in.plusOneName, in.childrenDetails,
				in.needsAccommodation, in.rsvpCode,
			}
		},
	})
	return &guestStore{
		base:   base,
		pool:   pool,
		log:    log.With("entity", "guests"),
		tracer: tracer,
		clock:  timeutil.Default(),
	}
}

// FindByID retrieves a guest by id within the event.
func (s *guestStore) FindByID(ctx context.Context, id, eventID int64) (*guest.Guest, error) {
	row, err := s.base.GetByID(ctx, id, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// FindByEmail retrieves a guest by exact email within the event.
func (s *guestStore) FindByEmail(ctx context.Context, email string, eventID int64) (*guest.Guest, error) {
	pred, err := s.base.Builder().Equal(colEmail, email)
	if err != nil {
		return nil, err
	}
	return s.findOneBy(ctx, eventID, pred)
}

// FindByRSVPCode retrieves a guest by invitation code within the event.
func (s *guestStore) FindByRSVPCode(ctx context.Context, code uuid.UUID, eventID int64) (*guest.Guest, error) {
	pred, err := s.base.Builder().Equal(colRSVPCode, code)
	if err != nil {
		return nil, err
	}
	return s.findOneBy(ctx, eventID, pred)
}

func (s *guestStore) findOneBy(ctx context.Context, eventID int64, pred scoped.Predicate) (*guest.Guest, error) {
	rows, err := s.base.GetAllByEvent(ctx, eventID, pred)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, guest.ErrGuestNotFound
	}
	return mapRowToDomain(rows[0]), nil
}

// ListByEvent returns every guest of the event.
func (s *guestStore) ListByEvent(ctx context.Context, eventID int64) ([]*guest.Guest, error) {
	rows, err := s.base.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Search returns guests whose first name, last name, or email contains the
// term, case-insensitively.
func (s *guestStore) Search(ctx context.Context, term string, eventID int64) ([]*guest.Guest, error) {
	b := s.base.Builder()
	first, err := b.Contains(colFirstName, term)
	if err != nil {
		return nil, err
	}
	last, err := b.Contains(colLastName, term)
	if err != nil {
		return nil, err
	}
	email, err := b.Contains(colEmail, term)
	if err != nil {
		return nil, err
	}

	rows, err := s.base.GetAllByEvent(ctx, eventID, scoped.Or(first, last, email))
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// ListByRSVPStatus returns guests filtered by RSVP reply.
func (s *guestStore) ListByRSVPStatus(ctx context.Context, status guest.RSVPStatus, eventID int64) ([]*guest.Guest, error) {
	pred, err := s.base.Builder().Equal(colRSVPStatus, string(status))
	if err != nil {
		return nil, err
	}
	rows, err := s.base.GetAllByEvent(ctx, eventID, pred)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// ListNeedingAccommodation returns guests flagged as needing a room.
func (s *guestStore) ListNeedingAccommodation(ctx context.Context, eventID int64) ([]*guest.Guest, error) {
	pred, err := s.base.Builder().IsTrue(colNeedsAccommodation)
	if err != nil {
		return nil, err
	}
	rows, err := s.base.GetAllByEvent(ctx, eventID, pred)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Statistics summarizes the event's guest list. The RSVP, plus-one, and
// accommodation counts are aggregated by the store; the with-children count
// is derived through the children parser because historical rows carry two
// different encodings of the children list.
func (s *guestStore) Statistics(ctx context.Context, eventID int64) (*guest.Statistics, error) {
	if _, err := s.base.Builder().TenantScope(eventID); err != nil {
		return nil, err
	}

	stats := &guest.Statistics{}
	err := storage.ExecuteAndTrace(ctx, s.tracer, "guests.Statistics",
		storage.DBAttributes("guests", eventID),
		func(ctx context.Context) error {
			const query = `
				SELECT
					COUNT(*),
					COUNT(*) FILTER (WHERE rsvp_status = 'confirmed'),
					COUNT(*) FILTER (WHERE rsvp_status = 'declined'),
					COUNT(*) FILTER (WHERE rsvp_status = 'pending'),
					COUNT(*) FILTER (WHERE plus_one),
					COUNT(*) FILTER (WHERE needs_accommodation)
				FROM guests
				WHERE event_id = $1
			`
			if err := s.pool.QueryRow(ctx, query, eventID).Scan(
				&stats.Total, &stats.Confirmed, &stats.Declined, &stats.Pending,
				&stats.WithPlusOne, &stats.NeedsAccommodation,
			); err != nil {
				return err
			}

			// The children list has two historical encodings, so the count
			// goes through the one boundary parser instead of a jsonb
			// expression that would miss string-encoded rows.
			rows, err := s.pool.Query(ctx,
				"SELECT children_details FROM guests WHERE event_id = $1", eventID)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				var raw []byte
				if err := rows.Scan(&raw); err != nil {
					return err
				}
				if len(guest.ParseChildren(raw)) > 0 {
					stats.WithChildren++
				}
			}
			return rows.Err()
		})
	if err != nil {
		s.log.Error(ctx, "store operation failed", "operation", "Statistics", "event_id", eventID, "error", err)
		return nil, err
	}

	return stats, nil
}

// Create inserts a guest under the event.
func (s *guestStore) Create(ctx context.Context, in guest.Insert, eventID int64) (*guest.Guest, error) {
	row, err := s.base.Create(ctx, toInsertRow(in), eventID)
	if err != nil {
		return nil, err
	}
	return mapRowToDomain(row), nil
}

// CreateBatch inserts many guests in one statement. Empty input is a no-op.
func (s *guestStore) CreateBatch(ctx context.Context, in []guest.Insert, eventID int64) ([]*guest.Guest, error) {
	inserts := make([]guestInsert, 0, len(in))
	for _, item := range in {
		inserts = append(inserts, toInsertRow(item))
	}
	rows, err := s.base.CreateBatch(ctx, inserts, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Update applies a partial update to a guest within the event.
func (s *guestStore) Update(ctx context.Context, id int64, upd guest.Update, eventID int64) (*guest.Guest, error) {
	assigns := make([]scoped.Assignment, 0, 8)
	if upd.FirstName != nil {
		assigns = append(assigns, scoped.Assignment{Column: colFirstName, Value: *upd.FirstName})
	}
	if upd.LastName != nil {
		assigns = append(assigns, scoped.Assignment{Column: colLastName, Value: *upd.LastName})
	}
	if upd.Email != nil {
		assigns = append(assigns, scoped.Assignment{Column: colEmail, Value: *upd.Email})
	}
	if upd.Phone != nil {
		assigns = append(assigns, scoped.Assignment{Column: colPhone, Value: *upd.Phone})
	}
	if upd.RSVPStatus != nil {
		if !guest.ValidRSVPStatus(*upd.RSVPStatus) {
			return nil, guest.ErrInvalidRSVP
		}
		assigns = append(assigns, scoped.Assignment{Column: colRSVPStatus, Value: string(*upd.RSVPStatus)})
	}
	if upd.PlusOne != nil {
		assigns = append(assigns, scoped.Assignment{Column: colPlusOne, Value: *upd.PlusOne})
	}
	if upd.PlusOneName != nil {
		assigns = append(assigns, scoped.Assignment{Column: colPlusOneName, Value: *upd.PlusOneName})
	}
	if upd.Children != nil {
		assigns = append(assigns, scoped.Assignment{Column: colChildrenDetails, Value: encodeChildren(upd.Children)})
	}
	if upd.NeedsAccommodation != nil {
		assigns = append(assigns, scoped.Assignment{Column: colNeedsAccommodation, Value: *upd.NeedsAccommodation})
	}
	if len(assigns) > 0 {
		assigns = append(assigns, scoped.Assignment{Column: "updated_at", Value: s.clock.Now()})
	}

	row, err := s.base.Update(ctx, id, assigns, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// Delete removes a guest within the event.
func (s *guestStore) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	return s.base.Delete(ctx, id, eventID)
}

// DeleteAllByEvent removes every guest of the event.
func (s *guestStore) DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error) {
	return s.base.DeleteAllByEvent(ctx, eventID)
}

func toInsertRow(in guest.Insert) guestInsert {
	status := in.RSVPStatus
	if status == "" {
		status = guest.RSVPPending
	}
	code := in.RSVPCode
	if code == uuid.Nil {
		code = uuid.New()
	}
	return guestInsert{
		firstName:          in.FirstName,
		lastName:           in.LastName,
		email:              in.Email,
		phone:              in.Phone,
		rsvpStatus:         string(status),
		plusOne:            in.PlusOne,
		plusOneName:        in.PlusOneName,
		childrenDetails:    encodeChildren(in.Children),
		needsAccommodation: in.NeedsAccommodation,
		rsvpCode:           code,
	}
}

func encodeChildren(children []guest.Child) []byte {
	if len(children) == 0 {
		return []byte("[]")
	}
	encoded, err := json.Marshal(children)
	if err != nil {
		return []byte("[]")
	}
	return encoded
}

func mapNotFound(err error) error {
	if errors.Is(err, scoped.ErrNotFound) {
		return guest.ErrGuestNotFound
	}
	return err
}

func mapRowToDomain(r *guestRow) *guest.Guest {
	return &guest.Guest{
		ID:                 r.ID,
		EventID:            r.EventID,
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Email:              r.Email,
		Phone:              r.Phone,
		RSVPStatus:         guest.RSVPStatus(r.RSVPStatus),
		PlusOne:            r.PlusOne,
		PlusOneName:        r.PlusOneName,
		Children:           guest.ParseChildren(r.ChildrenDetails),
		NeedsAccommodation: r.NeedsAccommodation,
		RSVPCode:           r.RSVPCode,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func mapRowsToDomain(rows []*guestRow) []*guest.Guest {
	out := make([]*guest.Guest, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapRowToDomain(r))
	}
	return out
}
