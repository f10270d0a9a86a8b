package template

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrTemplateNotFound = errors.New("message template not found")
	ErrInvalidName      = errors.New("invalid template name")
	ErrInvalidCategory  = errors.New("invalid template category")
)

// Category groups templates by the kind of message they produce
type Category string

// Predefined template categories
const (
	CategoryInvitation Category = "invitation"
	CategoryReminder   Category = "reminder"
	CategoryThankYou   Category = "thank_you"
	CategoryUpdate     Category = "update"
)

// ValidCategory checks if the category is one of the known kinds
func ValidCategory(c Category) bool {
	switch c {
	case CategoryInvitation, CategoryReminder, CategoryThankYou, CategoryUpdate:
		return true
	default:
		return false
	}
}

// Template is a reusable message body belonging to one event. LastUsed only
// ever moves forward; it is stamped when the template is dispatched.
type Template struct {
	ID        int64
	EventID   int64
	Name      string
	Category  Category
	Body      string
	LastUsed  *time.Time
	CreatedAt time.Time
}

// Insert is the payload for creating a template.
type Insert struct {
	Name     string
	Category Category
	Body     string
}

// Update carries the mutable template fields for a partial update.
type Update struct {
	Name     *string
	Category *Category
	Body     *string
}

// NewTemplate creates a new template with validation
func NewTemplate(eventID int64, name string, category Category, body string) (*Template, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if !ValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	return &Template{
		EventID:   eventID,
		Name:      name,
		Category:  category,
		Body:      body,
		CreatedAt: time.Now(),
	}, nil
}
