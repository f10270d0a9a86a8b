package postgres

import (
	"context"
	"testing"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedlockhq/wedlock/internal/domain/meal"
	"github.com/wedlockhq/wedlock/internal/infra/storage/scoped"
	"github.com/wedlockhq/wedlock/internal/infra/storage/testutil"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

type mealFixture struct {
	ctx   context.Context
	store meal.Repository
	pool  *pgxpool.Pool

	eventA, eventB       int64
	guestA, guestB       int64
	ceremonyA, ceremonyB int64
	dinnerA              int64
}

func setupMealTest(t *testing.T) (*mealFixture, func()) {
	t.Helper()

	pool, cleanup := testutil.SetupTestContainer(t)
	ctx := context.Background()

	f := &mealFixture{
		ctx:   ctx,
		store: NewMealStore(pool, logger.Noop(), testutil.NoOpTracer()),
		pool:  pool,
	}
	f.eventA = createEvent(t, ctx, pool, "meal-a")
	f.eventB = createEvent(t, ctx, pool, "meal-b")
	f.guestA = createGuest(t, ctx, pool, f.eventA, "Ada")
	f.guestB = createGuest(t, ctx, pool, f.eventB, "Bob")
	f.ceremonyA = createCeremony(t, ctx, pool, f.eventA, "Reception A")
	f.ceremonyB = createCeremony(t, ctx, pool, f.eventB, "Reception B")

	dinner, err := f.store.CreateOption(ctx, meal.OptionInsert{
		CeremonyID:  f.ceremonyA,
		Name:        "Roast dinner",
		Description: "Beef with seasonal vegetables",
	}, f.eventA)
	require.NoError(t, err)
	f.dinnerA = dinner.ID

	return f, cleanup
}

func createEvent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, slug string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO events (name, slug, event_date) VALUES ($1, $2, '2026-06-15') RETURNING id`,
		"Wedding "+slug, slug,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createGuest(t *testing.T, ctx context.Context, pool *pgxpool.Pool, eventID int64, name string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO guests (event_id, first_name, last_name, rsvp_code) VALUES ($1, $2, 'Guest', $3) RETURNING id`,
		eventID, name, uuid.New(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createCeremony(t *testing.T, ctx context.Context, pool *pgxpool.Pool, eventID int64, name string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO ceremonies (event_id, name, ceremony_date, starts_at, ends_at)
		 VALUES ($1, $2, '2026-06-15', '2026-06-15T17:00:00Z', '2026-06-15T23:00:00Z') RETURNING id`,
		eventID, name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestMealStore_CreateOption(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	created, err := f.store.CreateOption(f.ctx, meal.OptionInsert{
		CeremonyID: f.ceremonyA,
		Name:       "Garden risotto",
		Dietary:    meal.DietaryVegetarian,
	}, f.eventA)
	require.NoError(t, err)
	assert.Equal(t, f.eventA, created.EventID)
	assert.Equal(t, meal.DietaryVegetarian, created.Dietary)

	// Dietary defaults to omnivore when unset.
	found, err := f.store.FindOptionByID(f.ctx, f.dinnerA, f.eventA)
	require.NoError(t, err)
	assert.Equal(t, meal.DietaryOmnivore, found.Dietary)
}

func TestMealStore_CreateOption_CrossTenantCeremony(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	_, err := f.store.CreateOption(f.ctx, meal.OptionInsert{
		CeremonyID: f.ceremonyB,
		Name:       "Smuggled dish",
	}, f.eventA)
	require.ErrorIs(t, err, scoped.ErrCrossTenant)

	var crossErr *scoped.CrossTenantError
	require.ErrorAs(t, err, &crossErr)
	assert.Equal(t, "ceremony", crossErr.Entity)
}

func TestMealStore_OptionsForCeremony_WrongEventIsEmpty(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	options, err := f.store.OptionsForCeremony(f.ctx, f.ceremonyA, f.eventA)
	require.NoError(t, err)
	assert.Len(t, options, 1)

	// Same ceremony asserted under the wrong event: empty, not an error.
	options, err = f.store.OptionsForCeremony(f.ctx, f.ceremonyA, f.eventB)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestMealStore_UpsertSelection_ReplacesInPlace(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	fish, err := f.store.CreateOption(f.ctx, meal.OptionInsert{
		CeremonyID: f.ceremonyA,
		Name:       "Grilled trout",
	}, f.eventA)
	require.NoError(t, err)

	first, err := f.store.UpsertSelection(f.ctx, f.guestA, f.dinnerA, f.ceremonyA, "no onions", f.eventA)
	require.NoError(t, err)
	assert.Equal(t, f.dinnerA, first.MealOptionID)
	assert.Equal(t, "no onions", first.Notes)

	// Second choice for the same (guest, ceremony) replaces the first row.
	second, err := f.store.UpsertSelection(f.ctx, f.guestA, fish.ID, f.ceremonyA, "extra lemon", f.eventA)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, fish.ID, second.MealOptionID)
	assert.Equal(t, "extra lemon", second.Notes)

	var count int
	require.NoError(t, f.pool.QueryRow(f.ctx,
		"SELECT COUNT(*) FROM guest_meal_selections WHERE guest_id = $1 AND ceremony_id = $2",
		f.guestA, f.ceremonyA,
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMealStore_UpsertSelection_CrossTenant(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	// Guest from another event.
	_, err := f.store.UpsertSelection(f.ctx, f.guestB, f.dinnerA, f.ceremonyA, "", f.eventA)
	assert.ErrorIs(t, err, scoped.ErrCrossTenant)

	// Ceremony from another event.
	_, err = f.store.UpsertSelection(f.ctx, f.guestA, f.dinnerA, f.ceremonyB, "", f.eventA)
	assert.ErrorIs(t, err, scoped.ErrCrossTenant)

	// Option offered at a different ceremony of the same event is rejected
	// just like one from a foreign event.
	otherCeremony := createCeremony(t, f.ctx, f.pool, f.eventA, "Brunch A")
	_, err = f.store.UpsertSelection(f.ctx, f.guestA, f.dinnerA, otherCeremony, "", f.eventA)
	require.ErrorIs(t, err, scoped.ErrCrossTenant)

	var crossErr *scoped.CrossTenantError
	require.ErrorAs(t, err, &crossErr)
	assert.Equal(t, "meal option", crossErr.Entity)

	var count int
	require.NoError(t, f.pool.QueryRow(f.ctx, "SELECT COUNT(*) FROM guest_meal_selections").Scan(&count))
	assert.Zero(t, count)
}

func TestMealStore_OptionsWithCounts(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	fish, err := f.store.CreateOption(f.ctx, meal.OptionInsert{
		CeremonyID: f.ceremonyA,
		Name:       "Grilled trout",
	}, f.eventA)
	require.NoError(t, err)

	secondGuest := createGuest(t, f.ctx, f.pool, f.eventA, "Grace")
	_, err = f.store.UpsertSelection(f.ctx, f.guestA, f.dinnerA, f.ceremonyA, "", f.eventA)
	require.NoError(t, err)
	_, err = f.store.UpsertSelection(f.ctx, secondGuest, f.dinnerA, f.ceremonyA, "", f.eventA)
	require.NoError(t, err)

	counts, err := f.store.OptionsWithCounts(f.ctx, f.ceremonyA, f.eventA)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byID := map[int64]int64{}
	for _, c := range counts {
		byID[c.Option.ID] = c.Selections
	}
	assert.Equal(t, int64(2), byID[f.dinnerA])
	assert.Equal(t, int64(0), byID[fish.ID])
}

func TestMealStore_SelectionsForGuest(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	_, err := f.store.UpsertSelection(f.ctx, f.guestA, f.dinnerA, f.ceremonyA, "no onions", f.eventA)
	require.NoError(t, err)

	details, err := f.store.SelectionsForGuest(f.ctx, f.guestA, f.eventA)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Roast dinner", details[0].OptionName)
	assert.Equal(t, "Reception A", details[0].CeremonyName)
	assert.Equal(t, "no onions", details[0].Notes)

	// Wrong event: empty, not an error.
	details, err = f.store.SelectionsForGuest(f.ctx, f.guestA, f.eventB)
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestMealStore_DeleteSelection(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	sel, err := f.store.UpsertSelection(f.ctx, f.guestA, f.dinnerA, f.ceremonyA, "", f.eventA)
	require.NoError(t, err)

	// Wrong event refuses the delete.
	deleted, err := f.store.DeleteSelection(f.ctx, sel.ID, f.eventB)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = f.store.DeleteSelection(f.ctx, sel.ID, f.eventA)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.store.DeleteSelection(f.ctx, sel.ID, f.eventA)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMealStore_UpdateAndDeleteOption(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	vegan := meal.DietaryVegan
	name := "Roast vegetables"
	updated, err := f.store.UpdateOption(f.ctx, f.dinnerA, meal.OptionUpdate{
		Name:    &name,
		Dietary: &vegan,
	}, f.eventA)
	require.NoError(t, err)
	assert.Equal(t, "Roast vegetables", updated.Name)
	assert.Equal(t, meal.DietaryVegan, updated.Dietary)

	// Invisible under the wrong event.
	_, err = f.store.UpdateOption(f.ctx, f.dinnerA, meal.OptionUpdate{Name: &name}, f.eventB)
	assert.ErrorIs(t, err, meal.ErrOptionNotFound)

	deleted, err := f.store.DeleteOption(f.ctx, f.dinnerA, f.eventA)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.store.FindOptionByID(f.ctx, f.dinnerA, f.eventA)
	assert.ErrorIs(t, err, meal.ErrOptionNotFound)
}

func TestMealStore_DeleteAllOptionsByEvent(t *testing.T) {
	t.Parallel()

	f, cleanup := setupMealTest(t)
	defer cleanup()

	_, err := f.store.CreateOption(f.ctx, meal.OptionInsert{
		CeremonyID: f.ceremonyA,
		Name:       "Garden risotto",
	}, f.eventA)
	require.NoError(t, err)
	_, err = f.store.CreateOption(f.ctx, meal.OptionInsert{
		CeremonyID: f.ceremonyB,
		Name:       "Foreign dish",
	}, f.eventB)
	require.NoError(t, err)

	count, err := f.store.DeleteAllOptionsByEvent(f.ctx, f.eventA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := f.store.ListOptionsByEvent(f.ctx, f.eventB)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
