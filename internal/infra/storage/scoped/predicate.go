package scoped

import (
	"fmt"
	"strings"
)

// Predicate is a composable SQL condition fragment. The expression uses ?
// placeholders; they are rewritten to positional $n parameters when the
// final statement is assembled.
type Predicate struct {
	Expr string
	Args []any
}

// Builder constructs event-scoped predicates for one schema. Every
// predicate it produces conjoins the event column, so a query routed
// through the builder cannot leak rows across events.
type Builder struct {
	schema Schema
}

// NewBuilder creates a predicate builder for the given schema.
func NewBuilder(schema Schema) Builder { return Builder{schema: schema} }

// TenantScope returns "event column = eventID" conjoined with any extra
// predicates. Fails with ErrInvalidTenant before any store access if the
// event id is not a positive identifier.
func (b Builder) TenantScope(eventID int64, extra ...Predicate) (Predicate, error) {
	if eventID <= 0 {
		return Predicate{}, fmt.Errorf("event id %d: %w", eventID, ErrInvalidTenant)
	}

	p := Predicate{
		Expr: b.schema.TenantColumn + " = ?",
		Args: []any{eventID},
	}
	return conjoin(p, extra...), nil
}

// IDAndTenant returns "id column = id AND event column = eventID".
func (b Builder) IDAndTenant(id, eventID int64) (Predicate, error) {
	if id <= 0 {
		return Predicate{}, fmt.Errorf("id %d: %w", id, ErrInvalidID)
	}
	scope, err := b.TenantScope(eventID)
	if err != nil {
		return Predicate{}, err
	}

	p := Predicate{
		Expr: b.schema.IDColumn + " = ?",
		Args: []any{id},
	}
	return conjoin(p, scope), nil
}

// IDsAndTenant returns "id column = ANY(ids) AND event column = eventID"
// for a non-empty id list. Fails with ErrInvalidIDList on an empty list or
// any malformed member.
func (b Builder) IDsAndTenant(ids []int64, eventID int64) (Predicate, error) {
	if len(ids) == 0 {
		return Predicate{}, ErrInvalidIDList
	}
	for _, id := range ids {
		if id <= 0 {
			return Predicate{}, fmt.Errorf("id %d: %w", id, ErrInvalidIDList)
		}
	}
	scope, err := b.TenantScope(eventID)
	if err != nil {
		return Predicate{}, err
	}

	p := Predicate{
		Expr: b.schema.IDColumn + " = ANY(?)",
		Args: []any{ids},
	}
	return conjoin(p, scope), nil
}

// Equal returns "column = value" for a schema-validated column.
func (b Builder) Equal(column string, value any) (Predicate, error) {
	col, err := b.schema.Column(column)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Expr: col + " = ?", Args: []any{value}}, nil
}

// Contains returns a case-insensitive substring match on a schema-validated
// column.
func (b Builder) Contains(column, term string) (Predicate, error) {
	col, err := b.schema.Column(column)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Expr: col + " ILIKE ?", Args: []any{"%" + term + "%"}}, nil
}

// IsTrue returns "column = TRUE" for a schema-validated boolean column.
func (b Builder) IsTrue(column string) (Predicate, error) {
	col, err := b.schema.Column(column)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Expr: col + " = TRUE"}, nil
}

// Or disjoins predicates into a single parenthesized condition.
func Or(preds ...Predicate) Predicate {
	exprs := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		if p.Expr == "" {
			continue
		}
		exprs = append(exprs, p.Expr)
		args = append(args, p.Args...)
	}
	if len(exprs) == 0 {
		return Predicate{}
	}
	return Predicate{Expr: "(" + strings.Join(exprs, " OR ") + ")", Args: args}
}

// conjoin ANDs predicates together, skipping empty ones.
func conjoin(first Predicate, rest ...Predicate) Predicate {
	exprs := []string{first.Expr}
	args := append([]any{}, first.Args...)
	for _, p := range rest {
		if p.Expr == "" {
			continue
		}
		exprs = append(exprs, p.Expr)
		args = append(args, p.Args...)
	}
	if len(exprs) == 1 {
		return Predicate{Expr: exprs[0], Args: args}
	}
	return Predicate{Expr: "(" + strings.Join(exprs, ") AND (") + ")", Args: args}
}

// bindPlaceholders rewrites ? placeholders to positional $n parameters,
// numbering from start.
func bindPlaceholders(expr string, start int) string {
	var sb strings.Builder
	n := start
	for _, r := range expr {
		if r == '?' {
			fmt.Fprintf(&sb, "$%d", n)
			n++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
