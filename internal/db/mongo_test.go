package db

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo("mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestInsertVehicle_NilCollection(t *testing.T) {
	coll := &MongoVehicleCollection{Collection: nil}
	err := coll.InsertVehicle(context.Background(), &models.Vehicle{})
	if err == nil {
		t.Error("expected error when collection is nil")
	}
}

func TestObjectID_InvalidHexIsNotFound(t *testing.T) {
	_, err := objectID("booking", "not-a-hex-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoTransactor_RefusesWithoutTransactions(t *testing.T) {
	called := false
	fn := func(ctx context.Context) error {
		called = true
		return nil
	}
	err := (&MongoTransactor{}).WithTransaction(context.Background(), fn)
	assert.ErrorIs(t, err, ErrTransactionsDisabled)
	assert.False(t, called)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("booking", nil))
	assert.ErrorIs(t, translate("booking", mongo.ErrNoDocuments), ErrNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, translate("booking", other))
}

// integrationDatabase returns a clean database, or skips when MongoDB is unavailable.
func integrationDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
	}
	client, err := ConnectMongo(uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	database := client.Database("test_service_center")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, database.Drop(ctx))
	require.NoError(t, EnsureIndexes(ctx, database))
	return database
}

func TestMongoInventory_Integration(t *testing.T) {
	database := integrationDatabase(t)
	store := NewMongoStore(database, false)
	ctx := context.Background()

	item := &models.Inventory{PartName: "Oil filter", SKU: "OF-1", ServiceCenterID: "sc1", CurrentStock: 5}
	require.NoError(t, store.Inventory.InsertInventory(ctx, item))

	dup := &models.Inventory{PartName: "Oil filter", SKU: "OF-1", ServiceCenterID: "sc1"}
	assert.ErrorIs(t, store.Inventory.InsertInventory(ctx, dup), ErrConflict)

	other := &models.Inventory{PartName: "Oil filter", SKU: "OF-1", ServiceCenterID: "sc2"}
	assert.NoError(t, store.Inventory.InsertInventory(ctx, other))

	_, err := store.Inventory.DecrementStock(ctx, item.ID.Hex(), 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Concurrent decrements never oversell.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Inventory.DecrementStock(ctx, item.ID.Hex(), 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, succeeded)

	got, err := store.Inventory.FindInventoryByID(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStock)

	low, err := store.Inventory.FindInventory(ctx, InventoryFilter{ServiceCenterID: "sc1", LowStockOnly: true})
	require.NoError(t, err)
	assert.Len(t, low, 1)
}

func TestMongoBookingTransition_Integration(t *testing.T) {
	database := integrationDatabase(t)
	store := NewMongoStore(database, false)
	ctx := context.Background()

	booking := &models.Booking{CustomerID: "c1", ServiceCenterID: "sc1", Status: models.BookingPending}
	require.NoError(t, store.Bookings.InsertBooking(ctx, booking))

	updated, err := store.Bookings.TransitionBooking(ctx, booking.ID.Hex(), models.BookingPending, models.BookingConfirmed, BookingPatch{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)

	_, err = store.Bookings.TransitionBooking(ctx, booking.ID.Hex(), models.BookingPending, models.BookingConfirmed, BookingPatch{})
	assert.ErrorIs(t, err, ErrStatusMismatch)

	_, err = store.Bookings.TransitionBooking(ctx, "64b7f0c2a1b2c3d4e5f60718", models.BookingPending, models.BookingConfirmed, BookingPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoPerformance_Integration(t *testing.T) {
	database := integrationDatabase(t)
	store := NewMongoStore(database, false)
	ctx := context.Background()

	require.NoError(t, store.Performance.EnsurePerformance(ctx, "m1", "sc1"))
	require.NoError(t, store.Performance.EnsurePerformance(ctx, "m1", "sc1"))

	_, err := store.Performance.IncrementCompletion(ctx, "m1", "sc1", models.CompletionDelta{Hours: 1.5, OnTimeJobs: 1})
	require.NoError(t, err)
	_, err = store.Performance.IncrementRating(ctx, "m1", "sc1", 5)
	require.NoError(t, err)
	perf, err := store.Performance.IncrementRating(ctx, "m1", "sc1", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, perf.CompletedJobs)
	assert.Equal(t, 1, perf.TotalJobs)
	assert.Equal(t, 1.5, perf.TotalHours)
	assert.Equal(t, 2, perf.TotalRatings)
	assert.InDelta(t, 4.0, perf.AvgRating, 1e-9)
	assert.Equal(t, 1, perf.SatisfactionCount)

	// A rating on a mechanic with no row upserts one.
	fresh, err := store.Performance.IncrementRating(ctx, "m2", "sc1", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalRatings)
	assert.Equal(t, 4.0, fresh.AvgRating)
}

func TestMongoSequence_Integration(t *testing.T) {
	database := integrationDatabase(t)
	store := NewMongoStore(database, false)
	ctx := context.Background()

	first, err := store.Sequences.NextSequence(ctx, "jobcard:2026")
	require.NoError(t, err)
	second, err := store.Sequences.NextSequence(ctx, "jobcard:2026")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}
