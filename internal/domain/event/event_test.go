package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	e, err := NewEvent("Smith Wedding", "smith-wedding-2026", "Rosewood Hall", date)
	require.NoError(t, err)
	assert.Equal(t, StatusPlanning, e.Status)
	assert.Equal(t, "smith-wedding-2026", e.Slug)
	assert.Nil(t, e.UpdatedAt)
}

func TestNewEvent_Validation(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := NewEvent("", "slug", "", date)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewEvent("Name", "Bad Slug!", "", date)
	assert.ErrorIs(t, err, ErrInvalidSlug)

	_, err = NewEvent("Name", "slug", "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestEvent_Lifecycle(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	e, err := NewEvent("Smith Wedding", "smith-wedding", "", date)
	require.NoError(t, err)

	e.Activate()
	assert.Equal(t, StatusActive, e.Status)
	require.NotNil(t, e.UpdatedAt)
	assert.False(t, e.IsArchived())

	e.Archive()
	assert.Equal(t, StatusArchived, e.Status)
	assert.True(t, e.IsArchived())
}
