package service

import (
	"context"
	"io"
	"testing"
	"time"

	"parkhub/internal/catalog"
	"parkhub/internal/database"
	"parkhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockLedger) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockLedger) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockLedger) CompleteBooking(ctx context.Context, id string, endTime time.Time, totalCost int64) (*models.Booking, error) {
	args := m.Called(ctx, id, endTime, totalCost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpot), args.Error(1)
}
func (m *mockCatalog) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingSpot), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, bid string, b *models.Booking, s string) error {
	return m.Called(ctx, tt, bid, b, s).Error(0)
}

func newTestBookingService(ledger *mockLedger, cat *mockCatalog, bus *mockEventBus, worker *mockWorker) *BookingService {
	logger := zerolog.New(io.Discard)
	return NewBookingService(ledger, cat, bus, worker, &logger)
}

func TestBookingServiceOpen(t *testing.T) {
	ctx := context.Background()
	spot := &models.ParkingSpot{ID: "1", Name: "Downtown Garage", HourlyRate: 10}

	t.Run("opens booking on existing spot", func(t *testing.T) {
		ledger := new(mockLedger)
		cat := new(mockCatalog)
		bus := new(mockEventBus)
		worker := new(mockWorker)
		svc := newTestBookingService(ledger, cat, bus, worker)

		cat.On("GetSpot", ctx, "1").Return(spot, nil).Once()
		ledger.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", "booking_opened", mock.Anything).Return(nil).Once()
		worker.On("EnqueueTask", ctx, "upsert", mock.Anything, mock.Anything, "").Return(nil).Once()

		booking, err := svc.Open(ctx, "1")
		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, "1", booking.ParkingSpotID)
		assert.Equal(t, models.StatusActive, booking.Status)
		assert.Nil(t, booking.EndTime)
		assert.Nil(t, booking.TotalCost)
		ledger.AssertExpectations(t)
	})

	t.Run("unknown spot", func(t *testing.T) {
		ledger := new(mockLedger)
		cat := new(mockCatalog)
		svc := newTestBookingService(ledger, cat, new(mockEventBus), new(mockWorker))

		cat.On("GetSpot", ctx, "nope").Return(nil, catalog.ErrSpotNotFound).Once()

		_, err := svc.Open(ctx, "nope")
		assert.ErrorIs(t, err, catalog.ErrSpotNotFound)
		ledger.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})
}

func TestBookingServiceClose(t *testing.T) {
	ctx := context.Background()
	spot := &models.ParkingSpot{ID: "1", Name: "Downtown Garage", HourlyRate: 10}

	t.Run("completes active booking", func(t *testing.T) {
		ledger := new(mockLedger)
		cat := new(mockCatalog)
		bus := new(mockEventBus)
		worker := new(mockWorker)
		svc := newTestBookingService(ledger, cat, bus, worker)

		start := time.Now().Add(-90 * time.Minute)
		svc.now = func() time.Time { return start.Add(90 * time.Minute) }

		active := &models.Booking{ID: "b1", ParkingSpotID: "1", StartTime: start, Status: models.StatusActive}
		end := start.Add(90 * time.Minute)
		cost := int64(15)
		completed := &models.Booking{
			ID: "b1", ParkingSpotID: "1", StartTime: start,
			EndTime: &end, Status: models.StatusCompleted, TotalCost: &cost,
		}

		ledger.On("GetBooking", ctx, "b1").Return(active, nil).Once()
		cat.On("GetSpot", ctx, "1").Return(spot, nil).Once()
		ledger.On("CompleteBooking", ctx, "b1", end, int64(15)).Return(completed, nil).Once()
		bus.On("PublishJSON", "booking_completed", mock.Anything).Return(nil).Once()
		worker.On("EnqueueTask", ctx, "update_status", "b1", completed, models.StatusCompleted).Return(nil).Once()

		receipt, err := svc.Close(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "b1", receipt.BookingID)
		assert.Equal(t, "Downtown Garage", receipt.ParkingSpotName)
		assert.Equal(t, int64(15), receipt.TotalCost)
		assert.Equal(t, "1h 30m", receipt.Duration)
		ledger.AssertExpectations(t)
	})

	t.Run("already completed", func(t *testing.T) {
		ledger := new(mockLedger)
		cat := new(mockCatalog)
		svc := newTestBookingService(ledger, cat, new(mockEventBus), new(mockWorker))

		end := time.Now()
		cost := int64(5)
		done := &models.Booking{ID: "b2", ParkingSpotID: "1", Status: models.StatusCompleted, EndTime: &end, TotalCost: &cost}
		ledger.On("GetBooking", ctx, "b2").Return(done, nil).Once()

		_, err := svc.Close(ctx, "b2")
		assert.ErrorIs(t, err, database.ErrAlreadyCompleted)
		ledger.AssertNotCalled(t, "CompleteBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing booking", func(t *testing.T) {
		ledger := new(mockLedger)
		svc := newTestBookingService(ledger, new(mockCatalog), new(mockEventBus), new(mockWorker))

		ledger.On("GetBooking", ctx, "ghost").Return(nil, database.ErrBookingNotFound).Once()

		_, err := svc.Close(ctx, "ghost")
		assert.ErrorIs(t, err, database.ErrBookingNotFound)
	})
}

func TestBookingServiceEstimate(t *testing.T) {
	ctx := context.Background()
	spot := &models.ParkingSpot{ID: "1", Name: "Downtown Garage", HourlyRate: 10}

	t.Run("active booking priced at current time", func(t *testing.T) {
		ledger := new(mockLedger)
		cat := new(mockCatalog)
		svc := newTestBookingService(ledger, cat, new(mockEventBus), new(mockWorker))

		start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return start.Add(30 * time.Minute) }

		active := &models.Booking{ID: "b1", ParkingSpotID: "1", StartTime: start, Status: models.StatusActive}
		ledger.On("GetBooking", ctx, "b1").Return(active, nil).Once()
		cat.On("GetSpot", ctx, "1").Return(spot, nil).Once()

		quote, err := svc.Estimate(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), quote.TotalCost)
		assert.Equal(t, "0h 30m", quote.Duration)
	})

	t.Run("completed booking uses stored end time", func(t *testing.T) {
		ledger := new(mockLedger)
		cat := new(mockCatalog)
		svc := newTestBookingService(ledger, cat, new(mockEventBus), new(mockWorker))

		start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		end := start.Add(2 * time.Hour)
		cost := int64(20)
		done := &models.Booking{ID: "b2", ParkingSpotID: "1", StartTime: start, EndTime: &end, TotalCost: &cost, Status: models.StatusCompleted}

		// Часы могут идти дальше, оценка от этого не меняется
		svc.now = func() time.Time { return end.Add(5 * time.Hour) }

		ledger.On("GetBooking", ctx, "b2").Return(done, nil).Once()
		cat.On("GetSpot", ctx, "1").Return(spot, nil).Once()

		quote, err := svc.Estimate(ctx, "b2")
		require.NoError(t, err)
		assert.Equal(t, int64(20), quote.TotalCost)
		assert.Equal(t, "2h 0m", quote.Duration)
	})
}

func TestBookingServiceGetList(t *testing.T) {
	ctx := context.Background()
	ledger := new(mockLedger)
	svc := newTestBookingService(ledger, new(mockCatalog), new(mockEventBus), new(mockWorker))

	booking := &models.Booking{ID: "b1", Status: models.StatusActive}
	ledger.On("GetBooking", ctx, "b1").Return(booking, nil).Once()
	ledger.On("ListBookings", ctx).Return([]*models.Booking{booking}, nil).Once()

	got, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBookingServiceGet_AbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	ledger := new(mockLedger)
	svc := newTestBookingService(ledger, new(mockCatalog), new(mockEventBus), new(mockWorker))

	ledger.On("GetBooking", ctx, "ghost").Return(nil, database.ErrBookingNotFound).Once()

	got, err := svc.Get(ctx, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
