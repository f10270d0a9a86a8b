package meal

import "context"

// Repository defines event-scoped access to meal options and guest meal
// selections. Selection reads and writes are validated transitively: the
// guest, ceremony, and option legs must each belong to the asserted event.
type Repository interface {
	// FindOptionByID retrieves a meal option by id within the event.
	FindOptionByID(ctx context.Context, id, eventID int64) (*Option, error)

	// ListOptionsByEvent returns every meal option of the event.
	ListOptionsByEvent(ctx context.Context, eventID int64) ([]*Option, error)

	// OptionsForCeremony returns the options offered at a ceremony. If the
	// ceremony does not belong to the event the result is empty.
	OptionsForCeremony(ctx context.Context, ceremonyID, eventID int64) ([]*Option, error)

	// OptionsWithCounts returns each of a ceremony's options joined with
	// the number of guests who selected it.
	OptionsWithCounts(ctx context.Context, ceremonyID, eventID int64) ([]*OptionWithCount, error)

	// CreateOption inserts a meal option under the event after verifying
	// the ceremony belongs to it.
	CreateOption(ctx context.Context, in OptionInsert, eventID int64) (*Option, error)

	// UpdateOption applies a partial update within the event.
	UpdateOption(ctx context.Context, id int64, upd OptionUpdate, eventID int64) (*Option, error)

	// DeleteOption removes a meal option within the event.
	DeleteOption(ctx context.Context, id, eventID int64) (bool, error)

	// DeleteAllOptionsByEvent removes every meal option of the event.
	DeleteAllOptionsByEvent(ctx context.Context, eventID int64) (int64, error)

	// SelectionsForGuest returns a guest's selections joined with option
	// and ceremony metadata, empty if the guest is not in the event.
	SelectionsForGuest(ctx context.Context, guestID, eventID int64) ([]*SelectionDetail, error)

	// UpsertSelection records a guest's meal choice for a ceremony. If the
	// guest already chose for that ceremony the existing row is updated in
	// place; two rows can never exist for one (guest, ceremony) pair.
	// Guest, ceremony, and option must all belong to the event.
	UpsertSelection(ctx context.Context, guestID, mealOptionID, ceremonyID int64, notes string, eventID int64) (*Selection, error)

	// DeleteSelection removes a selection after verifying ownership across
	// guest, option, and ceremony. Reports whether a row was removed.
	DeleteSelection(ctx context.Context, selectionID, eventID int64) (bool, error)
}
