package scoped

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testSchema.Validate())

	missingTable := testSchema
	missingTable.Table = ""
	assert.Error(t, missingTable.Validate())

	badID := testSchema
	badID.IDColumn = "widget_id"
	assert.ErrorIs(t, badID.Validate(), ErrUnknownColumn)

	badTenant := testSchema
	badTenant.TenantColumn = "tenant_id"
	assert.ErrorIs(t, badTenant.Validate(), ErrUnknownColumn)
}

func TestSchema_Column(t *testing.T) {
	t.Parallel()

	col, err := testSchema.Column("name")
	require.NoError(t, err)
	assert.Equal(t, "name", col)

	_, err = testSchema.Column("color")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSchema_SelectList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "id, event_id, name, active, created_at", testSchema.SelectList())
}

type widgetRow struct {
	ID      int64  `db:"id"`
	EventID int64  `db:"event_id"`
	Name    string `db:"name"`
}

type widgetInsert struct{ name string }

func TestStoreNew_RejectsMisdeclaredConfig(t *testing.T) {
	t.Parallel()

	log := logger.Noop()

	_, err := New(nil, log, nil, Config[widgetRow, widgetInsert]{
		Schema:        testSchema,
		InsertColumns: []string{"color"},
		InsertValues:  func(in widgetInsert) []any { return []any{in.name} },
	})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = New(nil, log, nil, Config[widgetRow, widgetInsert]{
		Schema:        testSchema,
		InsertColumns: []string{"name", "event_id"},
		InsertValues:  func(in widgetInsert) []any { return []any{in.name} },
	})
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustNew(nil, log, nil, Config[widgetRow, widgetInsert]{
			Schema:        testSchema,
			InsertColumns: []string{"color"},
			InsertValues:  func(in widgetInsert) []any { return []any{in.name} },
		})
	})
}

func TestCrossTenantError_Is(t *testing.T) {
	t.Parallel()

	err := &CrossTenantError{Entity: "guest", ID: 7, EventID: 3}
	assert.ErrorIs(t, err, ErrCrossTenant)
	assert.Contains(t, err.Error(), "guest")
}
