package guest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuest(t *testing.T) {
	t.Parallel()

	g, err := NewGuest(1, "Ada", "Lovelace", "ada@example.com", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.EventID)
	assert.Equal(t, RSVPPending, g.RSVPStatus)
	assert.NotEqual(t, uuid.Nil, g.RSVPCode)
	assert.False(t, g.HasChildren())
}

func TestNewGuest_InvalidName(t *testing.T) {
	t.Parallel()

	_, err := NewGuest(1, "", "Lovelace", "", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewGuest(1, "Ada", "   ", "", "")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestValidRSVPStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidRSVPStatus(RSVPPending))
	assert.True(t, ValidRSVPStatus(RSVPConfirmed))
	assert.True(t, ValidRSVPStatus(RSVPDeclined))
	assert.False(t, ValidRSVPStatus("maybe"))
}

func TestParseChildren_PlainArray(t *testing.T) {
	t.Parallel()

	raw := []byte(`[{"name":"Mia","age":6,"meal":"pasta"},{"name":"Leo","age":3}]`)

	children := ParseChildren(raw)
	require.Len(t, children, 2)
	assert.Equal(t, "Mia", children[0].Name)
	assert.Equal(t, 6, children[0].Age)
	assert.Equal(t, "pasta", children[0].Meal)
	assert.Equal(t, "Leo", children[1].Name)
	assert.Empty(t, children[1].Meal)
}

func TestParseChildren_StringEncoded(t *testing.T) {
	t.Parallel()

	// Historical rows hold the array JSON-encoded inside a JSON string.
	raw := []byte(`"[{\"name\":\"Mia\",\"age\":6}]"`)

	children := ParseChildren(raw)
	require.Len(t, children, 1)
	assert.Equal(t, "Mia", children[0].Name)
}

func TestParseChildren_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseChildren(nil))
	assert.Nil(t, ParseChildren([]byte{}))
	assert.Empty(t, ParseChildren([]byte(`[]`)))
}

func TestParseChildren_Malformed(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ParseChildren([]byte(`{not json`)))
	assert.Empty(t, ParseChildren([]byte(`"also {not json"`)))
	assert.Empty(t, ParseChildren([]byte(`"plain string, not an array"`)))
}
