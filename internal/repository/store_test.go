package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willjrcristo/refresh-api/internal/domain"
)

// Planos inseridos pela migração 000002.
const (
	seedBasico     = "0b6f3c1e-8f2a-4d8e-9c1a-1f0e6d2b7a01"
	seedProfMensal = "0b6f3c1e-8f2a-4d8e-9c1a-1f0e6d2b7a02"
	seedProfAnual  = "0b6f3c1e-8f2a-4d8e-9c1a-1f0e6d2b7a03"
	accountA       = "11111111-1111-1111-1111-111111111111"
	accountB       = "22222222-2222-2222-2222-222222222222"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newSub(t *testing.T, userID, planID string, start string) domain.Subscription {
	t.Helper()
	plans := map[string]domain.Interval{seedBasico: domain.IntervalMonth, seedProfMensal: domain.IntervalMonth, seedProfAnual: domain.IntervalYear}
	sub, err := domain.NewSubscription(uuid.NewString(), userID, domain.Plan{ID: planID, Interval: plans[planID]}, ts(start))
	require.NoError(t, err)
	return sub
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(db, DriverSQLite))
}

func TestPlanStore_ListActive(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewPlanStore(db)

	require.NoError(t, store.Create(ctx, domain.Plan{
		ID:        uuid.NewString(),
		Name:      "Legado",
		Price:     decimal.NewFromInt(10),
		Currency:  "MZN",
		Interval:  domain.IntervalMonth,
		Features:  domain.Features{"antigo"},
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.Create(ctx, domain.Plan{
		ID:        uuid.NewString(),
		Name:      "Intermediário",
		Price:     decimal.RequireFromString("199.50"),
		Currency:  "MZN",
		Interval:  domain.IntervalMonth,
		Features:  domain.Features{"agenda"},
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}))

	plans, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 4)

	for i, p := range plans {
		assert.True(t, p.Active, "plano %s deveria estar ativo", p.Name)
		if i > 0 {
			assert.True(t, plans[i-1].Price.LessThanOrEqual(p.Price), "ordem por preço quebrada em %d", i)
		}
	}
	assert.Equal(t, "Básico", plans[0].Name)
	assert.Equal(t, "Intermediário", plans[1].Name)
	assert.True(t, decimal.RequireFromString("199.5").Equal(plans[1].Price))
	assert.Equal(t, domain.IntervalYear, plans[3].Interval)
	assert.NotEmpty(t, plans[3].Features)
}

func TestPlanStore_GetByID(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore(openTestDB(t))

	p, err := store.GetByID(ctx, seedProfMensal)
	require.NoError(t, err)
	assert.Equal(t, "Profissional", p.Name)
	assert.Equal(t, "MZN", p.Currency)
	assert.True(t, decimal.NewFromInt(499).Equal(p.Price))

	_, err = store.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore(openTestDB(t))

	sub := newSub(t, accountA, seedProfMensal, "2024-01-31T00:00:00Z")
	require.NoError(t, store.Create(ctx, sub))

	got, err := store.GetForUser(ctx, sub.ID, accountA)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.True(t, ts("2024-01-31T00:00:00Z").Equal(got.CurrentPeriodStart))
	assert.True(t, ts("2024-02-29T00:00:00Z").Equal(got.CurrentPeriodEnd))
	require.NotNil(t, got.Plan)
	assert.Equal(t, "Profissional", got.Plan.Name)
	assert.Equal(t, domain.IntervalMonth, got.Plan.Interval)

	active, err := store.FindActive(ctx, accountA)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, active.ID)

	_, err = store.FindActive(ctx, accountB)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetForUser(ctx, sub.ID, accountB)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_UniqueActivePerUser(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore(openTestDB(t))

	require.NoError(t, store.Create(ctx, newSub(t, accountA, seedProfMensal, "2024-01-01T00:00:00Z")))

	err := store.Create(ctx, newSub(t, accountA, seedProfAnual, "2024-01-02T00:00:00Z"))
	assert.ErrorIs(t, err, ErrUniqueViolation)

	// Outra conta não é afetada.
	assert.NoError(t, store.Create(ctx, newSub(t, accountB, seedProfAnual, "2024-01-02T00:00:00Z")))

	subs, err := store.ListByUser(ctx, accountA)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubscriptionStore_ListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore(openTestDB(t))

	old := newSub(t, accountA, seedBasico, "2023-01-01T00:00:00Z")
	old.Status = domain.StatusExpired
	require.NoError(t, store.Create(ctx, old))
	recent := newSub(t, accountA, seedProfAnual, "2024-05-01T00:00:00Z")
	require.NoError(t, store.Create(ctx, recent))
	require.NoError(t, store.Create(ctx, newSub(t, accountB, seedBasico, "2024-06-01T00:00:00Z")))

	subs, err := store.ListByUser(ctx, accountA)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, recent.ID, subs[0].ID)
	assert.Equal(t, old.ID, subs[1].ID)
	assert.Equal(t, "Profissional Anual", subs[0].Plan.Name)

	none, err := store.ListByUser(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSubscriptionStore_MarkCancelAtPeriodEnd(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore(openTestDB(t))

	sub := newSub(t, accountA, seedProfMensal, "2024-01-01T00:00:00Z")
	require.NoError(t, store.Create(ctx, sub))

	require.NoError(t, store.MarkCancelAtPeriodEnd(ctx, sub.ID, accountA, ts("2024-01-10T00:00:00Z")))
	first, err := store.GetForUser(ctx, sub.ID, accountA)
	require.NoError(t, err)
	assert.True(t, first.CancelAtPeriodEnd)
	assert.Equal(t, domain.StatusActive, first.Status)
	assert.True(t, ts("2024-01-10T00:00:00Z").Equal(first.UpdatedAt))

	require.NoError(t, store.MarkCancelAtPeriodEnd(ctx, sub.ID, accountA, ts("2024-01-20T00:00:00Z")))
	second, err := store.GetForUser(ctx, sub.ID, accountA)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.CancelAtPeriodEnd, second.CancelAtPeriodEnd)
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt))

	err = store.MarkCancelAtPeriodEnd(ctx, sub.ID, accountB, ts("2024-01-20T00:00:00Z"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_ExpireLapsed(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore(openTestDB(t))

	lapsedA := newSub(t, accountA, seedProfMensal, "2024-01-01T00:00:00Z")
	require.NoError(t, store.Create(ctx, lapsedA))
	lapsedB := newSub(t, accountB, seedProfMensal, "2024-01-15T00:00:00Z")
	require.NoError(t, store.Create(ctx, lapsedB))

	now := ts("2024-02-01T00:00:00Z")

	n, err := store.ExpireLapsed(ctx, accountA, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.GetForUser(ctx, lapsedA.ID, accountA)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)

	// O período de B termina em 15/02.
	n, err = store.ExpireLapsed(ctx, "", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = store.ExpireLapsed(ctx, "", ts("2024-02-15T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Depois de expirar, a conta pode assinar de novo.
	assert.NoError(t, store.Create(ctx, newSub(t, accountA, seedProfAnual, "2024-02-01T00:00:00Z")))
}

func TestSubscriptionStore_MarkExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore(openTestDB(t))

	sub := newSub(t, accountA, seedProfMensal, "2024-01-01T00:00:00Z")
	require.NoError(t, store.Create(ctx, sub))

	require.NoError(t, store.MarkExpired(ctx, sub.ID, accountA, ts("2024-01-05T00:00:00Z")))
	got, err := store.GetForUser(ctx, sub.ID, accountA)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)

	assert.ErrorIs(t, store.MarkExpired(ctx, sub.ID, accountB, time.Now()), ErrNotFound)
}
