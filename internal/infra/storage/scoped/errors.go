package scoped

import (
	"errors"
	"fmt"
)

// Validation and lookup errors shared by every event-scoped store. All of
// them are raised before any statement reaches the database.
var (
	// ErrInvalidTenant indicates a missing or non-positive event id.
	ErrInvalidTenant = errors.New("invalid event scope")

	// ErrInvalidID indicates a non-positive entity id.
	ErrInvalidID = errors.New("invalid entity id")

	// ErrInvalidIDList indicates an empty or malformed entity id list.
	ErrInvalidIDList = errors.New("empty or invalid entity id list")

	// ErrUnknownColumn indicates a column name absent from the target
	// schema. This is a programming error in the caller, not a data
	// condition, so it fails loudly instead of producing a no-op filter.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotFound indicates no row matched both the identity and the event
	// predicate. Callers map it to their domain's not-found sentinel.
	ErrNotFound = errors.New("record not found")

	// ErrCrossTenant is the match target for CrossTenantError.
	ErrCrossTenant = errors.New("reference outside event scope")
)

// CrossTenantError reports a write that referenced a parent entity not
// owned by the asserted event. It matches ErrCrossTenant via errors.Is.
type CrossTenantError struct {
	Entity  string
	ID      int64
	EventID int64
}

func (e *CrossTenantError) Error() string {
	return fmt.Sprintf("%s %d does not belong to event %d", e.Entity, e.ID, e.EventID)
}

func (e *CrossTenantError) Is(target error) bool { return target == ErrCrossTenant }
