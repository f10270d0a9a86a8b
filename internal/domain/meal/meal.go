package meal

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrOptionNotFound    = errors.New("meal option not found")
	ErrSelectionNotFound = errors.New("meal selection not found")
	ErrInvalidName       = errors.New("invalid meal option name")
)

// Dietary categorizes a meal option
type Dietary string

// Predefined dietary categories
const (
	DietaryOmnivore   Dietary = "omnivore"
	DietaryVegetarian Dietary = "vegetarian"
	DietaryVegan      Dietary = "vegan"
)

// Option represents one dish offered at a ceremony.
type Option struct {
	ID          int64
	EventID     int64
	CeremonyID  int64
	Name        string
	Description string
	Dietary     Dietary
	CreatedAt   time.Time
}

// OptionInsert is the payload for creating a meal option.
type OptionInsert struct {
	CeremonyID  int64
	Name        string
	Description string
	Dietary     Dietary
}

// OptionUpdate carries the mutable option fields for a partial update.
type OptionUpdate struct {
	Name        *string
	Description *string
	Dietary     *Dietary
}

// OptionWithCount pairs an option with the number of guests who chose it.
type OptionWithCount struct {
	Option
	Selections int64
}

// Selection records one guest's meal choice for one ceremony. At most one
// selection exists per (guest, ceremony) pair; writing a second choice for
// the pair replaces the first.
type Selection struct {
	ID           int64
	GuestID      int64
	MealOptionID int64
	CeremonyID   int64
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SelectionDetail is a selection joined with its option and ceremony.
type SelectionDetail struct {
	Selection
	OptionName        string
	OptionDescription string
	OptionDietary     Dietary
	CeremonyName      string
	CeremonyDate      time.Time
}
