package database

import (
	"context"
	"os"
	"testing"
	"time"

	"parkhub/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newActiveBooking(spotID string) *models.Booking {
	return &models.Booking{
		ID:            uuid.NewString(),
		ParkingSpotID: spotID,
		StartTime:     time.Now().Truncate(time.Second),
		Status:        models.StatusActive,
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := newActiveBooking("spot-1")
	require.NoError(t, db.CreateBooking(ctx, booking))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	assert.Equal(t, "spot-1", got.ParkingSpotID)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.EndTime)
	assert.Nil(t, got.TotalCost)
	assert.True(t, got.Consistent())
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newActiveBooking("spot-1")
	second := newActiveBooking("spot-2")
	second.StartTime = first.StartTime.Add(time.Hour)
	require.NoError(t, db.CreateBooking(ctx, first))
	require.NoError(t, db.CreateBooking(ctx, second))

	bookings, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, first.ID, bookings[0].ID)
	assert.Equal(t, second.ID, bookings[1].ID)
}

func TestCompleteBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := newActiveBooking("spot-1")
	require.NoError(t, db.CreateBooking(ctx, booking))

	endTime := booking.StartTime.Add(90 * time.Minute)
	updated, err := db.CompleteBooking(ctx, booking.ID, endTime, 15)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, updated.Status)
	require.NotNil(t, updated.EndTime)
	require.NotNil(t, updated.TotalCost)
	assert.Equal(t, int64(15), *updated.TotalCost)
	assert.True(t, updated.Consistent())

	t.Run("SecondCheckoutRejected", func(t *testing.T) {
		_, err := db.CompleteBooking(ctx, booking.ID, endTime.Add(time.Hour), 99)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)

		// stored values untouched
		got, err := db.GetBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(15), *got.TotalCost)
		assert.WithinDuration(t, endTime, *got.EndTime, time.Second)
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := db.CompleteBooking(ctx, "no-such-id", endTime, 10)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestListBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	inside := newActiveBooking("spot-1")
	inside.StartTime = base
	outside := newActiveBooking("spot-2")
	outside.StartTime = base.AddDate(0, 1, 0)
	require.NoError(t, db.CreateBooking(ctx, inside))
	require.NoError(t, db.CreateBooking(ctx, outside))

	bookings, err := db.ListBookingsByDateRange(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, inside.ID, bookings[0].ID)
}

func TestCountBookingsByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := newActiveBooking("spot-1")
	second := newActiveBooking("spot-1")
	require.NoError(t, db.CreateBooking(ctx, first))
	require.NoError(t, db.CreateBooking(ctx, second))
	_, err := db.CompleteBooking(ctx, first.ID, first.StartTime.Add(time.Hour), 10)
	require.NoError(t, err)

	active, err := db.CountBookingsByStatus(ctx, models.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	completed, err := db.CountBookingsByStatus(ctx, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
}
