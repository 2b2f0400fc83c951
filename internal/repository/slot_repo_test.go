package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/testutil"
)

func newSlot(ref, kind string, start, end time.Time, cents int64) *model.SlotPurchase {
	return &model.SlotPurchase{
		Reference:   ref,
		Kind:        kind,
		TargetID:    model.NewID(),
		UserID:      model.NewID(),
		StartAt:     start,
		EndAt:       end,
		AmountCents: cents,
		Currency:    "USD",
		Status:      model.SlotStatusActive,
	}
}

func TestSlotRepo_CountOverlappingHalfOpen(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Slot.Create(ctx, newSlot("r1", model.SlotKindAd, base, base.Add(48*time.Hour), 1000)))
	require.NoError(t, repo.Slot.Create(ctx, newSlot("r2", model.SlotKindFeaturedScript, base, base.Add(48*time.Hour), 1000)))

	n, err := repo.Slot.CountOverlapping(ctx, model.SlotKindAd, base.Add(24*time.Hour), base.Add(72*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// touching at the boundary is not an overlap
	n, err = repo.Slot.CountOverlapping(ctx, model.SlotKindAd, base.Add(48*time.Hour), base.Add(72*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSlotRepo_CancelAndExpire(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	ended := newSlot("r1", model.SlotKindAd, now.Add(-72*time.Hour), now.Add(-time.Hour), 500)
	live := newSlot("r2", model.SlotKindAd, now.Add(-time.Hour), now.Add(time.Hour), 700)
	require.NoError(t, repo.Slot.Create(ctx, ended))
	require.NoError(t, repo.Slot.Create(ctx, live))

	n, err := repo.Slot.ExpireEnded(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := repo.Slot.GetByID(ctx, ended.SlotID)
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusExpired, got.Status)

	active, err := repo.Slot.CountActive(ctx, model.SlotKindAd, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), active)

	revenue, err := repo.Slot.SumRevenue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1200), revenue)

	require.NoError(t, repo.Slot.Cancel(ctx, live.SlotID, now, model.NewID()))
	require.Error(t, repo.Slot.Cancel(ctx, live.SlotID, now, model.NewID()))

	revenue, err = repo.Slot.SumRevenue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(500), revenue)
}

func TestSlotRepo_CancelByTarget(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := newSlot("r1", model.SlotKindAd, now, now.Add(time.Hour), 100)
	b := newSlot("r2", model.SlotKindAd, now.Add(time.Hour), now.Add(2*time.Hour), 100)
	b.TargetID = a.TargetID
	require.NoError(t, repo.Slot.Create(ctx, a))
	require.NoError(t, repo.Slot.Create(ctx, b))

	n, err := repo.Slot.CancelByTarget(ctx, model.SlotKindAd, a.TargetID, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = repo.Slot.CancelByTarget(ctx, model.SlotKindFeaturedScript, a.TargetID, now)
	require.NoError(t, err)
	require.Zero(t, n)
}
