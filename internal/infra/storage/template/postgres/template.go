// Package postgres provides the PostgreSQL implementation of the message
// template repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/domain/template"
	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

var _ template.Repository = (*templateStore)(nil)

const (
	colID       = "id"
	colEventID  = "event_id"
	colName     = "name"
	colCategory = "category"
	colBody     = "body"
	colLastUsed = "last_used"
)

var templateSchema = scoped.Schema{
	Table:        "message_templates",
	IDColumn:     colID,
	TenantColumn: colEventID,
	Columns: []string{
		colID, colEventID, colName, colCategory, colBody, colLastUsed,
		"created_at",
	},
}

type templateRow struct {
	ID        int64      `db:"id"`
	EventID   int64      `db:"event_id"`
	Name      string     `db:"name"`
	Category  string     `db:"category"`
	Body      string     `db:"body"`
	LastUsed  *time.Time `db:"last_used"`
	CreatedAt time.Time  `db:"created_at"`
}

type templateStore struct {
	base   *scoped.Store[templateRow, template.Insert]
	pool   *pgxpool.Pool
	log    *logger.Logger
	tracer trace.Tracer
}

// NewTemplateStore creates a template.Repository backed by PostgreSQL.
func NewTemplateStore(pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer) template.Repository {
	base := scoped.MustNew(pool, log, tracer, scoped.Config[templateRow, template.Insert]{
		Schema:        templateSchema,
		InsertColumns: []string{colName, colCategory, colBody},
		InsertValues: func(in template.Insert) []any {
			return []any{in.Name, string(in.Category), in.Body}
		},
	})
	return &templateStore{
		base:   base,
		pool:   pool,
		log:    log.With("entity", "message_templates"),
		tracer: tracer,
	}
}

// FindByID retrieves a template by id within the event.
func (s *templateStore) FindByID(ctx context.Context, id, eventID int64) (*template.Template, error) {
	row, err := s.base.GetByID(ctx, id, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// ListByEvent returns every template of the event.
func (s *templateStore) ListByEvent(ctx context.Context, eventID int64) ([]*template.Template, error) {
	rows, err := s.base.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// ListByCategory returns the event's templates in one category.
func (s *templateStore) ListByCategory(ctx context.Context, category template.Category, eventID int64) ([]*template.Template, error) {
	if !template.ValidCategory(category) {
		return nil, template.ErrInvalidCategory
	}
	pred, err := s.base.Builder().Equal(colCategory, string(category))
	if err != nil {
		return nil, err
	}
	rows, err := s.base.GetAllByEvent(ctx, eventID, pred)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Search returns templates whose name contains the term.
func (s *templateStore) Search(ctx context.Context, term string, eventID int64) ([]*template.Template, error) {
	pred, err := s.base.Builder().Contains(colName, term)
	if err != nil {
		return nil, err
	}
	rows, err := s.base.GetAllByEvent(ctx, eventID, pred)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// RecentlyUsed returns up to limit templates ordered by last use, most
// recent first. Never-used templates sort last.
func (s *templateStore) RecentlyUsed(ctx context.Context, limit int, eventID int64) ([]*template.Template, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("event id %d: %w", eventID, scoped.ErrInvalidTenant)
	}
	if limit <= 0 {
		return []*template.Template{}, nil
	}

	var out []*template.Template
	err := storage.ExecuteAndTrace(ctx, s.tracer, "message_templates.RecentlyUsed",
		storage.DBAttributes("message_templates", eventID),
		func(ctx context.Context) error {
			query := fmt.Sprintf(`
				SELECT %s FROM message_templates
				WHERE event_id = $1
				ORDER BY last_used DESC NULLS LAST, id
				LIMIT $2
			`, s.base.Schema().SelectList())
			rows, err := s.pool.Query(ctx, query, eventID, limit)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var r templateRow
				if err := rows.Scan(
					&r.ID, &r.EventID, &r.Name, &r.Category, &r.Body,
					&r.LastUsed, &r.CreatedAt,
				); err != nil {
					return err
				}
				out = append(out, mapRowToDomain(&r))
			}
			return rows.Err()
		})
	if err != nil {
		return nil, s.fail(ctx, "RecentlyUsed", eventID, err)
	}

	return out, nil
}

// MarkUsed stamps the template's last-used time with the current time. The
// guard keeps the stamp from ever moving backward, even under clock skew
// between callers.
func (s *templateStore) MarkUsed(ctx context.Context, id, eventID int64) (bool, error) {
	if eventID <= 0 {
		return false, fmt.Errorf("event id %d: %w", eventID, scoped.ErrInvalidTenant)
	}
	if id <= 0 {
		return false, fmt.Errorf("id %d: %w", id, scoped.ErrInvalidID)
	}

	var affected bool
	err := storage.ExecuteAndTrace(ctx, s.tracer, "message_templates.MarkUsed",
		storage.DBAttributes("message_templates", eventID),
		func(ctx context.Context) error {
			const query = `
				UPDATE message_templates
				SET last_used = now()
				WHERE id = $1 AND event_id = $2
				  AND (last_used IS NULL OR last_used < now())
			`
			tag, err := s.pool.Exec(ctx, query, id, eventID)
			if err != nil {
				return err
			}
			affected = tag.RowsAffected() > 0
			return nil
		})
	if err != nil {
		return false, s.fail(ctx, "MarkUsed", eventID, err)
	}

	return affected, nil
}

// Create inserts a template under the event.
func (s *templateStore) Create(ctx context.Context, in template.Insert, eventID int64) (*template.Template, error) {
	if err := validateInsert(in); err != nil {
		return nil, err
	}
	row, err := s.base.Create(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowToDomain(row), nil
}

// CreateBatch inserts many templates in one statement.
func (s *templateStore) CreateBatch(ctx context.Context, in []template.Insert, eventID int64) ([]*template.Template, error) {
	for _, item := range in {
		if err := validateInsert(item); err != nil {
			return nil, err
		}
	}
	rows, err := s.base.CreateBatch(ctx, in, eventID)
	if err != nil {
		return nil, err
	}
	return mapRowsToDomain(rows), nil
}

// Update applies a partial update within the event.
func (s *templateStore) Update(ctx context.Context, id int64, upd template.Update, eventID int64) (*template.Template, error) {
	assigns := make([]scoped.Assignment, 0, 3)
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, template.ErrInvalidName
		}
		assigns = append(assigns, scoped.Assignment{Column: colName, Value: *upd.Name})
	}
	if upd.Category != nil {
		if !template.ValidCategory(*upd.Category) {
			return nil, template.ErrInvalidCategory
		}
		assigns = append(assigns, scoped.Assignment{Column: colCategory, Value: string(*upd.Category)})
	}
	if upd.Body != nil {
		assigns = append(assigns, scoped.Assignment{Column: colBody, Value: *upd.Body})
	}

	row, err := s.base.Update(ctx, id, assigns, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapRowToDomain(row), nil
}

// Delete removes a template within the event.
func (s *templateStore) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	return s.base.Delete(ctx, id, eventID)
}

// DeleteAllByEvent removes every template of the event.
func (s *templateStore) DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error) {
	return s.base.DeleteAllByEvent(ctx, eventID)
}

func validateInsert(in template.Insert) error {
	if in.Name == "" {
		return template.ErrInvalidName
	}
	if !template.ValidCategory(in.Category) {
		return template.ErrInvalidCategory
	}
	return nil
}

func (s *templateStore) fail(ctx context.Context, op string, eventID int64, err error) error {
	s.log.Error(ctx, "store operation failed",
		"operation", op,
		"event_id", eventID,
		"error", err,
	)
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, scoped.ErrNotFound) {
		return template.ErrTemplateNotFound
	}
	return err
}

func mapRowToDomain(r *templateRow) *template.Template {
	return &template.Template{
		ID:        r.ID,
		EventID:   r.EventID,
		Name:      r.Name,
		Category:  template.Category(r.Category),
		Body:      r.Body,
		LastUsed:  r.LastUsed,
		CreatedAt: r.CreatedAt,
	}
}

func mapRowsToDomain(rows []*templateRow) []*template.Template {
	out := make([]*template.Template, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapRowToDomain(r))
	}
	return out
}
