package postgres

import (
	"context"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedlockhq/wedlock/internal/domain/template"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/internal/infra/storage/testutil"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

func setupTemplateTest(t *testing.T) (context.Context, template.Repository, *pgxpool.Pool, func()) {
	t.Helper()

	pool, cleanup := testutil.SetupTestContainer(t)
	store := NewTemplateStore(pool, logger.Noop(), testutil.NoOpTracer())
	return context.Background(), store, pool, cleanup
}

func createTestEvent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, slug string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO events (name, slug, event_date) VALUES ($1, $2, '2026-06-15') RETURNING id`,
		"Wedding "+slug, slug,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestTemplateStore_CreateAndFind(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-create")

	created, err := store.Create(ctx, template.Insert{
		Name:     "Save the date",
		Category: template.CategoryInvitation,
		Body:     "Dear {{name}}, save the date!",
	}, eventID)
	require.NoError(t, err)
	assert.Equal(t, eventID, created.EventID)
	assert.Nil(t, created.LastUsed)

	found, err := store.FindByID(ctx, created.ID, eventID)
	require.NoError(t, err)
	assert.Equal(t, "Save the date", found.Name)
	assert.Equal(t, template.CategoryInvitation, found.Category)
}

func TestTemplateStore_Create_Invalid(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-invalid")

	_, err := store.Create(ctx, template.Insert{Category: template.CategoryReminder}, eventID)
	assert.ErrorIs(t, err, template.ErrInvalidName)

	_, err = store.Create(ctx, template.Insert{Name: "Oops", Category: "newsletter"}, eventID)
	assert.ErrorIs(t, err, template.ErrInvalidCategory)
}

func TestTemplateStore_ListByCategory(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-category")

	_, err := store.CreateBatch(ctx, []template.Insert{
		{Name: "Invite formal", Category: template.CategoryInvitation},
		{Name: "Invite casual", Category: template.CategoryInvitation},
		{Name: "One week left", Category: template.CategoryReminder},
	}, eventID)
	require.NoError(t, err)

	invites, err := store.ListByCategory(ctx, template.CategoryInvitation, eventID)
	require.NoError(t, err)
	assert.Len(t, invites, 2)

	_, err = store.ListByCategory(ctx, "newsletter", eventID)
	assert.ErrorIs(t, err, template.ErrInvalidCategory)
}

func TestTemplateStore_Search(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-search")
	otherEvent := createTestEvent(t, ctx, pool, "tpl-search-other")

	_, err := store.CreateBatch(ctx, []template.Insert{
		{Name: "Thank you brunch", Category: template.CategoryThankYou},
		{Name: "Thank you gifts", Category: template.CategoryThankYou},
		{Name: "Venue update", Category: template.CategoryUpdate},
	}, eventID)
	require.NoError(t, err)
	_, err = store.Create(ctx, template.Insert{
		Name:     "Thank you from afar",
		Category: template.CategoryThankYou,
	}, otherEvent)
	require.NoError(t, err)

	// Case-insensitive substring match, scoped to the event.
	matches, err := store.Search(ctx, "THANK", eventID)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestTemplateStore_MarkUsed(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-markused")
	otherEvent := createTestEvent(t, ctx, pool, "tpl-markused-other")

	created, err := store.Create(ctx, template.Insert{
		Name:     "Reminder",
		Category: template.CategoryReminder,
	}, eventID)
	require.NoError(t, err)

	// Wrong event never stamps.
	stamped, err := store.MarkUsed(ctx, created.ID, otherEvent)
	require.NoError(t, err)
	assert.False(t, stamped)

	stamped, err = store.MarkUsed(ctx, created.ID, eventID)
	require.NoError(t, err)
	assert.True(t, stamped)

	found, err := store.FindByID(ctx, created.ID, eventID)
	require.NoError(t, err)
	require.NotNil(t, found.LastUsed)
	first := *found.LastUsed

	// A later stamp moves the mark forward.
	stamped, err = store.MarkUsed(ctx, created.ID, eventID)
	require.NoError(t, err)
	assert.True(t, stamped)

	found, err = store.FindByID(ctx, created.ID, eventID)
	require.NoError(t, err)
	require.NotNil(t, found.LastUsed)
	assert.False(t, found.LastUsed.Before(first))
}

func TestTemplateStore_RecentlyUsed(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-recent")

	created, err := store.CreateBatch(ctx, []template.Insert{
		{Name: "Never used", Category: template.CategoryUpdate},
		{Name: "Used long ago", Category: template.CategoryUpdate},
		{Name: "Used recently", Category: template.CategoryUpdate},
	}, eventID)
	require.NoError(t, err)
	require.Len(t, created, 3)

	old := time.Now().Add(-48 * time.Hour).UTC()
	recent := time.Now().Add(-time.Hour).UTC()
	_, err = pool.Exec(ctx, "UPDATE message_templates SET last_used = $1 WHERE name = 'Used long ago'", old)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "UPDATE message_templates SET last_used = $1 WHERE name = 'Used recently'", recent)
	require.NoError(t, err)

	templates, err := store.RecentlyUsed(ctx, 10, eventID)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, "Used recently", templates[0].Name)
	assert.Equal(t, "Used long ago", templates[1].Name)
	assert.Equal(t, "Never used", templates[2].Name)

	templates, err = store.RecentlyUsed(ctx, 2, eventID)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Used recently", templates[0].Name)

	templates, err = store.RecentlyUsed(ctx, 0, eventID)
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestTemplateStore_Update(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventID := createTestEvent(t, ctx, pool, "tpl-update")

	created, err := store.Create(ctx, template.Insert{
		Name:     "Draft",
		Category: template.CategoryUpdate,
		Body:     "old body",
	}, eventID)
	require.NoError(t, err)

	name := "Final"
	body := "new body"
	updated, err := store.Update(ctx, created.ID, template.Update{Name: &name, Body: &body}, eventID)
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Name)
	assert.Equal(t, "new body", updated.Body)
	assert.Equal(t, template.CategoryUpdate, updated.Category)

	empty := ""
	_, err = store.Update(ctx, created.ID, template.Update{Name: &empty}, eventID)
	assert.ErrorIs(t, err, template.ErrInvalidName)

	bad := template.Category("newsletter")
	_, err = store.Update(ctx, created.ID, template.Update{Category: &bad}, eventID)
	assert.ErrorIs(t, err, template.ErrInvalidCategory)
}

func TestTemplateStore_TenantIsolation(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventA := createTestEvent(t, ctx, pool, "tpl-iso-a")
	eventB := createTestEvent(t, ctx, pool, "tpl-iso-b")

	created, err := store.Create(ctx, template.Insert{
		Name:     "Private",
		Category: template.CategoryInvitation,
	}, eventA)
	require.NoError(t, err)

	_, err = store.FindByID(ctx, created.ID, eventB)
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)

	listed, err := store.ListByEvent(ctx, eventB)
	require.NoError(t, err)
	assert.Empty(t, listed)

	deleted, err := store.Delete(ctx, created.ID, eventB)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.FindByID(ctx, created.ID, eventA)
	require.NoError(t, err)

	_, err = store.FindByID(ctx, created.ID, 0)
	assert.ErrorIs(t, err, scoped.ErrInvalidTenant)
}

func TestTemplateStore_DeleteAllByEvent(t *testing.T) {
	t.Parallel()

	ctx, store, pool, cleanup := setupTemplateTest(t)
	defer cleanup()

	eventA := createTestEvent(t, ctx, pool, "tpl-delall-a")
	eventB := createTestEvent(t, ctx, pool, "tpl-delall-b")

	_, err := store.CreateBatch(ctx, []template.Insert{
		{Name: "One", Category: template.CategoryUpdate},
		{Name: "Two", Category: template.CategoryUpdate},
	}, eventA)
	require.NoError(t, err)
	_, err = store.Create(ctx, template.Insert{Name: "Keep", Category: template.CategoryUpdate}, eventB)
	require.NoError(t, err)

	count, err := store.DeleteAllByEvent(ctx, eventA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := store.ListByEvent(ctx, eventB)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
