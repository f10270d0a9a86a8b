package allocation

import "context"

// Repository defines access to room allocations. Although the rows carry no
// event column, every operation still takes the asserted event id: reads
// verify the parent guest or accommodation belongs to that event, and
// writes refuse to reference parents outside it.
//
// Create, Update, and Delete also keep the owning accommodation's
// allocated-rooms counter in step with the rows, atomically with the row
// mutation itself.
type Repository interface {
	// FindByID retrieves an allocation whose guest and accommodation both
	// belong to the event. Returns ErrAllocationNotFound otherwise.
	FindByID(ctx context.Context, id, eventID int64) (*RoomAllocation, error)

	// ListByGuest returns the allocations of a guest. If the guest does not
	// belong to the event the result is empty, not an error.
	ListByGuest(ctx context.Context, guestID, eventID int64) ([]*RoomAllocation, error)

	// ListByAccommodation returns the allocations of an accommodation,
	// empty if the accommodation does not belong to the event.
	ListByAccommodation(ctx context.Context, accommodationID, eventID int64) ([]*RoomAllocation, error)

	// Create inserts an allocation after verifying both parents belong to
	// the event, and increments the accommodation's allocated-rooms counter
	// in the same transaction.
	Create(ctx context.Context, in Insert, eventID int64) (*RoomAllocation, error)

	// Update mutates an allocation after re-verifying ownership through the
	// allocation, guest, and accommodation together. Moving the allocation
	// to another accommodation shifts both counters transactionally.
	Update(ctx context.Context, id int64, upd Update, eventID int64) (*RoomAllocation, error)

	// Delete removes an allocation and decrements the accommodation's
	// counter, clamped at zero. Reports whether a row was removed.
	Delete(ctx context.Context, id, eventID int64) (bool, error)
}
