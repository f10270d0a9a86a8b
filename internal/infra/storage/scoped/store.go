// Package scoped provides the event-scoped persistence base shared by all
// child-entity stores. It combines a predicate builder, which conjoins an
// event condition onto every filter, with a generic CRUD store, so each
// operation is tenant-isolated by construction rather than by discipline
// at every call site.
package scoped

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wedlockhq/wedlock/internal/infra/storage"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

// Assignment is one column mutation of a partial update. Columns are
// resolved against the store's schema before the statement is built.
type Assignment struct {
	Column string
	Value  any
}

// Config declares the static shape of a store: the table schema plus the
// insert column list and the function that flattens an insert payload into
// its values. The event column is never part of InsertColumns; the store
// attaches it to every insert itself.
type Config[E, I any] struct {
	Schema        Schema
	InsertColumns []string
	InsertValues  func(I) []any
}

// Store is the generic event-scoped repository base. E is the database row
// struct (scanned by column name), I the insert payload.
type Store[E, I any] struct {
	pool          *pgxpool.Pool
	log           *logger.Logger
	tracer        trace.Tracer
	schema        Schema
	builder       Builder
	insertColumns []string
	insertValues  func(I) []any
	selectList    string
}

// New constructs a Store, validating the schema and the insert column list.
// A column absent from the schema, or an insert list naming the event
// column, is a programming error and fails here rather than at query time.
func New[E, I any](pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer, cfg Config[E, I]) (*Store[E, I], error) {
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}
	for _, col := range cfg.InsertColumns {
		if _, err := cfg.Schema.Column(col); err != nil {
			return nil, err
		}
		if col == cfg.Schema.TenantColumn {
			return nil, fmt.Errorf("insert columns for %s must not include the event column", cfg.Schema.Table)
		}
	}

	return &Store[E, I]{
		pool:          pool,
		log:           log.With("entity", cfg.Schema.Table),
		tracer:        tracer,
		schema:        cfg.Schema,
		builder:       NewBuilder(cfg.Schema),
		insertColumns: cfg.InsertColumns,
		insertValues:  cfg.InsertValues,
		selectList:    cfg.Schema.SelectList(),
	}, nil
}

// MustNew is New for statically declared configs; it panics on a
// misdeclared schema.
func MustNew[E, I any](pool *pgxpool.Pool, log *logger.Logger, tracer trace.Tracer, cfg Config[E, I]) *Store[E, I] {
	s, err := New(pool, log, tracer, cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Schema returns the store's table schema.
func (s *Store[E, I]) Schema() Schema { return s.schema }

// Builder returns the store's predicate builder for entity-specific queries.
func (s *Store[E, I]) Builder() Builder { return s.builder }

// Pool returns the underlying connection pool for entity-specific queries
// that the generic base does not cover.
func (s *Store[E, I]) Pool() *pgxpool.Pool { return s.pool }

// GetByID fetches one row by id within the event. A row that exists under
// a different event is indistinguishable from one that does not exist:
// both return ErrNotFound.
func (s *Store[E, I]) GetByID(ctx context.Context, id, eventID int64) (*E, error) {
	pred, err := s.builder.IDAndTenant(id, eventID)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		s.selectList, s.schema.Table, bindPlaceholders(pred.Expr, 1))

	var row *E
	err = storage.ExecuteAndTrace(ctx, s.tracer, s.schema.Table+".GetByID",
		storage.DBAttributes(s.schema.Table, eventID),
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, query, pred.Args...)
			if err != nil {
				return err
			}
			row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[E])
			return err
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.fail(ctx, "GetByID", eventID, err)
	}

	return row, nil
}

// GetAllByEvent fetches every row of the event matching the extra
// predicates, ordered by id. An event with no rows yields an empty slice.
func (s *Store[E, I]) GetAllByEvent(ctx context.Context, eventID int64, extra ...Predicate) ([]*E, error) {
	pred, err := s.builder.TenantScope(eventID, extra...)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		s.selectList, s.schema.Table, bindPlaceholders(pred.Expr, 1), s.schema.IDColumn)

	var out []*E
	err = storage.ExecuteAndTrace(ctx, s.tracer, s.schema.Table+".GetAllByEvent",
		storage.DBAttributes(s.schema.Table, eventID),
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, query, pred.Args...)
			if err != nil {
				return err
			}
			out, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[E])
			return err
		})
	if err != nil {
		return nil, s.fail(ctx, "GetAllByEvent", eventID, err)
	}

	return out, nil
}

// Create inserts one row under the event and returns it with its generated
// id. The event column is attached here; callers never supply it.
func (s *Store[E, I]) Create(ctx context.Context, in I, eventID int64) (*E, error) {
	rows, err := s.CreateBatch(ctx, []I{in}, eventID)
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

// CreateBatch inserts many rows in a single statement and returns them with
// their generated ids. An empty input is an idempotent no-op: it returns an
// empty slice without touching the store.
func (s *Store[E, I]) CreateBatch(ctx context.Context, in []I, eventID int64) ([]*E, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("event id %d: %w", eventID, ErrInvalidTenant)
	}
	if len(in) == 0 {
		return []*E{}, nil
	}

	cols := append(append([]string{}, s.insertColumns...), s.schema.TenantColumn)
	width := len(cols)

	var (
		values strings.Builder
		args   = make([]any, 0, len(in)*width)
	)
	for i, item := range in {
		if i > 0 {
			values.WriteString(", ")
		}
		values.WriteString("(")
		for j := 0; j < width; j++ {
			if j > 0 {
				values.WriteString(", ")
			}
			fmt.Fprintf(&values, "$%d", i*width+j+1)
		}
		values.WriteString(")")
		args = append(args, s.insertValues(item)...)
		args = append(args, eventID)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING %s",
		s.schema.Table, strings.Join(cols, ", "), values.String(), s.selectList)

	var out []*E
	err := storage.ExecuteAndTrace(ctx, s.tracer, s.schema.Table+".CreateBatch",
		storage.DBAttributes(s.schema.Table, eventID),
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			out, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[E])
			return err
		})
	if err != nil {
		return nil, s.fail(ctx, "CreateBatch", eventID, err)
	}

	return out, nil
}

// Update applies a partial update to one row within the event. The row's
// existence under the event is confirmed first; if it is absent no write is
// attempted and ErrNotFound is returned. Assignment columns are resolved
// against the schema, so an unknown column fails before the statement runs.
func (s *Store[E, I]) Update(ctx context.Context, id int64, assigns []Assignment, eventID int64) (*E, error) {
	if _, err := s.GetByID(ctx, id, eventID); err != nil {
		return nil, err
	}
	if len(assigns) == 0 {
		return s.GetByID(ctx, id, eventID)
	}

	var (
		sets = make([]string, 0, len(assigns))
		args = make([]any, 0, len(assigns)+2)
	)
	for i, a := range assigns {
		col, err := s.schema.Column(a.Column)
		if err != nil {
			return nil, err
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, a.Value)
	}

	pred, err := s.builder.IDAndTenant(id, eventID)
	if err != nil {
		return nil, err
	}
	args = append(args, pred.Args...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
		s.schema.Table, strings.Join(sets, ", "),
		bindPlaceholders(pred.Expr, len(assigns)+1), s.selectList)

	var row *E
	err = storage.ExecuteAndTrace(ctx, s.tracer, s.schema.Table+".Update",
		storage.DBAttributes(s.schema.Table, eventID),
		func(ctx context.Context) error {
			rows, err := s.pool.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[E])
			return err
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.fail(ctx, "Update", eventID, err)
	}

	return row, nil
}

// Delete removes one row within the event. Reports false, without
// attempting a write, when the row is absent under the event.
func (s *Store[E, I]) Delete(ctx context.Context, id, eventID int64) (bool, error) {
	if _, err := s.GetByID(ctx, id, eventID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	pred, err := s.builder.IDAndTenant(id, eventID)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s",
		s.schema.Table, bindPlaceholders(pred.Expr, 1))

	var deleted bool
	err = storage.ExecuteAndTrace(ctx, s.tracer, s.schema.Table+".Delete",
		storage.DBAttributes(s.schema.Table, eventID),
		func(ctx context.Context) error {
			tag, err := s.pool.Exec(ctx, query, pred.Args...)
			if err != nil {
				return err
			}
			deleted = tag.RowsAffected() > 0
			return nil
		})
	if err != nil {
		return false, s.fail(ctx, "Delete", eventID, err)
	}

	return deleted, nil
}

// DeleteAllByEvent removes every row of the event and returns the number
// of rows removed. Rows of other events are untouched.
func (s *Store[E, I]) DeleteAllByEvent(ctx context.Context, eventID int64) (int64, error) {
	pred, err := s.builder.TenantScope(eventID)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s",
		s.schema.Table, bindPlaceholders(pred.Expr, 1))

	var count int64
	err = storage.ExecuteAndTrace(ctx, s.tracer, s.schema.Table+".DeleteAllByEvent",
		storage.DBAttributes(s.schema.Table, eventID),
		func(ctx context.Context) error {
			tag, err := s.pool.Exec(ctx, query, pred.Args...)
			if err != nil {
				return err
			}
			count = tag.RowsAffected()
			return nil
		})
	if err != nil {
		return 0, s.fail(ctx, "DeleteAllByEvent", eventID, err)
	}

	return count, nil
}

// fail logs a store-level failure with the entity, operation, and event id
// before handing the error back unmodified. Validation failures never reach
// here; they are returned without logging or a store round-trip.
func (s *Store[E, I]) fail(ctx context.Context, op string, eventID int64, err error) error {
	s.log.Error(ctx, "store operation failed",
		"operation", op,
		"event_id", eventID,
		"error", err,
	)
	return err
}
