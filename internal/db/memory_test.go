package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/models"
)

func TestMemoryStore_InventoryUniquenessPerServiceCenter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.InsertInventory(ctx, &models.Inventory{SKU: "BP-1", ServiceCenterID: "sc1"}))
	assert.ErrorIs(t, store.InsertInventory(ctx, &models.Inventory{SKU: "BP-1", ServiceCenterID: "sc1"}), ErrConflict)
	assert.NoError(t, store.InsertInventory(ctx, &models.Inventory{SKU: "BP-1", ServiceCenterID: "sc2"}))
}

func TestMemoryStore_DecrementStockIsGuarded(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	item := &models.Inventory{SKU: "OF-1", ServiceCenterID: "sc1", CurrentStock: 5}
	require.NoError(t, store.InsertInventory(ctx, item))

	_, err := store.DecrementStock(ctx, item.ID.Hex(), 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.DecrementStock(ctx, item.ID.Hex(), 1)
		}()
	}
	wg.Wait()

	got, err := store.FindInventoryByID(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStock)

	_, err = store.DecrementStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TransactionRollsBack(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	item := &models.Inventory{SKU: "OF-1", ServiceCenterID: "sc1", CurrentStock: 5}
	require.NoError(t, store.InsertInventory(ctx, item))

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := store.DecrementStock(ctx, item.ID.Hex(), 3); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.FindInventoryByID(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentStock)
}

func TestMemoryStore_RollbackKeepsConcurrentWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	item := &models.Inventory{SKU: "OF-1", ServiceCenterID: "sc1", CurrentStock: 5}
	require.NoError(t, store.InsertInventory(ctx, item))

	boom := errors.New("boom")
	started := make(chan struct{})
	var wg sync.WaitGroup
	err := store.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := store.DecrementStock(txCtx, item.ID.Hex(), 3); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			close(started)
			_, err := store.IncrementStock(ctx, item.ID.Hex(), 10)
			assert.NoError(t, err)
			_, err = store.IncrementRating(ctx, "mech1", "sc1", 5)
			assert.NoError(t, err)
		}()
		<-started
		time.Sleep(20 * time.Millisecond)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	wg.Wait()

	got, err := store.FindInventoryByID(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 15, got.CurrentStock)

	perf, err := store.FindPerformance(ctx, "mech1", "sc1")
	require.NoError(t, err)
	assert.Equal(t, 1, perf.TotalRatings)
}

func TestMemoryStore_NestedTransactionJoinsOuter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	item := &models.Inventory{SKU: "OF-1", ServiceCenterID: "sc1", CurrentStock: 5}
	require.NoError(t, store.InsertInventory(ctx, item))

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		inner := store.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := store.DecrementStock(ctx, item.ID.Hex(), 2)
			return err
		})
		require.NoError(t, inner)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.FindInventoryByID(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentStock)
}

func TestMemoryStore_ReplaceJobCardChecksVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	jc := &models.JobCard{BookingID: "b1", JobCardNumber: "JC-2026-0001"}
	require.NoError(t, store.InsertJobCard(ctx, jc))
	assert.Equal(t, int64(1), jc.Version)

	first, err := store.FindJobCardByID(ctx, jc.ID.Hex())
	require.NoError(t, err)
	second, err := store.FindJobCardByID(ctx, jc.ID.Hex())
	require.NoError(t, err)

	first.Progress = 10
	require.NoError(t, store.ReplaceJobCard(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Progress = 20
	assert.ErrorIs(t, store.ReplaceJobCard(ctx, second), ErrVersionConflict)

	dup := &models.JobCard{BookingID: "b1", JobCardNumber: "JC-2026-0002"}
	assert.ErrorIs(t, store.InsertJobCard(ctx, dup), ErrConflict)
}

func TestMemoryStore_TransitionBooking(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	b := &models.Booking{Status: models.BookingPending}
	require.NoError(t, store.InsertBooking(ctx, b))

	mech := "m1"
	got, err := store.TransitionBooking(ctx, b.ID.Hex(), models.BookingPending, models.BookingConfirmed, BookingPatch{AssignedMechanic: &mech})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.Equal(t, "m1", got.AssignedMechanic)

	_, err = store.TransitionBooking(ctx, b.ID.Hex(), models.BookingPending, models.BookingCancelled, BookingPatch{})
	assert.ErrorIs(t, err, ErrStatusMismatch)
}

func TestMemoryStore_SequenceIsMonotonic(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seen := map[int64]bool{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.NextSequence(ctx, "invoice:2026")
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
