package scoped

import (
	"fmt"
	"strings"
)

// Schema describes one event-owned table: its name, its id and event
// columns, and the full set of selectable columns. Stores declare their
// schema as a package-level value, so a misdeclared column surfaces when
// the store is constructed rather than as a silent no-op filter at query
// time.
type Schema struct {
	Table        string
	IDColumn     string
	TenantColumn string
	Columns      []string
}

// Validate checks that the schema is internally consistent.
func (s Schema) Validate() error {
	if s.Table == "" {
		return fmt.Errorf("schema missing table name")
	}
	if s.IDColumn == "" || s.TenantColumn == "" {
		return fmt.Errorf("schema for %s missing id or tenant column", s.Table)
	}
	if !s.has(s.IDColumn) {
		return fmt.Errorf("schema for %s: id column %q: %w", s.Table, s.IDColumn, ErrUnknownColumn)
	}
	if !s.has(s.TenantColumn) {
		return fmt.Errorf("schema for %s: tenant column %q: %w", s.Table, s.TenantColumn, ErrUnknownColumn)
	}
	return nil
}

// Column resolves a column name against the schema. Unknown names fail
// with ErrUnknownColumn; this is the guard for any residual dynamic path.
func (s Schema) Column(name string) (string, error) {
	if !s.has(name) {
		return "", fmt.Errorf("%s.%s: %w", s.Table, name, ErrUnknownColumn)
	}
	return name, nil
}

// SelectList returns the comma-joined column list for SELECT and RETURNING
// clauses.
func (s Schema) SelectList() string { return strings.Join(s.Columns, ", ") }

func (s Schema) has(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}
