package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"parkhub/internal/database"
	"parkhub/internal/domain"
	"parkhub/internal/events"
	"parkhub/internal/metrics"
	"parkhub/internal/models"
	"parkhub/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService drives the booking lifecycle: open, estimate, checkout.
// It writes to the ledger first and only then publishes events and
// enqueues sheet sync, so observers never see a booking the ledger lost.
type BookingService struct {
	ledger     domain.BookingLedger
	catalog    domain.CatalogSource
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger

	// Checkout на один и тот же booking id сериализуется
	locksMu sync.Mutex
	locks   map[string]*bookingLock

	now func() time.Time
}

// bookingLock serializes checkout per booking id. The holders count lets
// the map entry be dropped once the last caller unlocks.
type bookingLock struct {
	mu      sync.Mutex
	holders int
}

func NewBookingService(ledger domain.BookingLedger, catalog domain.CatalogSource, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		ledger:     ledger,
		catalog:    catalog,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
		locks:      make(map[string]*bookingLock),
		now:        time.Now,
	}
}

// Open starts a booking on the given spot. The spot must exist in the
// catalog; availability counters are informational and not decremented.
func (s *BookingService) Open(ctx context.Context, spotID string) (*models.Booking, error) {
	spot, err := s.catalog.GetSpot(ctx, spotID)
	if err != nil {
		metrics.IncBookingError("spot_lookup")
		return nil, err
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		ParkingSpotID: spot.ID,
		StartTime:     s.now(),
		Status:        models.StatusActive,
	}

	if err := s.ledger.CreateBooking(ctx, booking); err != nil {
		metrics.IncBookingError("create")
		return nil, err
	}

	metrics.IncBookingOpened()
	s.logger.Info().Str("booking_id", booking.ID).Str("spot_id", spot.ID).Msg("booking opened")

	s.publishEvent(events.EventBookingOpened, booking, spot.Name, "")
	s.enqueueSync(ctx, booking, "upsert", "")

	return booking, nil
}

// Close completes a booking and returns the receipt. A booking that is
// already completed yields ErrAlreadyCompleted; the stored cost and end
// time are never recomputed.
func (s *BookingService) Close(ctx context.Context, bookingID string) (*models.Receipt, error) {
	unlock := s.lockBooking(bookingID)
	defer unlock()

	booking, err := s.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			metrics.IncBookingError("not_found")
		} else {
			metrics.IncBookingError("read")
		}
		return nil, err
	}
	if !booking.Active() {
		metrics.IncBookingError("already_completed")
		return nil, database.ErrAlreadyCompleted
	}

	spot, err := s.catalog.GetSpot(ctx, booking.ParkingSpotID)
	if err != nil {
		metrics.IncBookingError("spot_lookup")
		return nil, err
	}

	endTime := s.now()
	quote, err := pricing.Compute(booking.StartTime, endTime, spot.HourlyRate)
	if err != nil {
		metrics.IncBookingError("pricing")
		return nil, err
	}

	completed, err := s.ledger.CompleteBooking(ctx, bookingID, endTime, quote.TotalCost)
	if err != nil {
		metrics.IncBookingError("complete")
		return nil, err
	}

	metrics.IncBookingCompleted()
	metrics.ObserveBookingDuration(endTime.Sub(booking.StartTime).Hours())
	s.logger.Info().
		Str("booking_id", completed.ID).
		Str("spot_id", spot.ID).
		Int64("total_cost", quote.TotalCost).
		Str("duration", quote.Duration).
		Msg("booking completed")

	s.publishEvent(events.EventBookingCompleted, completed, spot.Name, quote.Duration)
	s.enqueueSync(ctx, completed, "update_status", completed.Status)

	return &models.Receipt{
		BookingID:       completed.ID,
		ParkingSpotName: spot.Name,
		StartTime:       completed.StartTime,
		EndTime:         *completed.EndTime,
		Duration:        quote.Duration,
		TotalCost:       *completed.TotalCost,
	}, nil
}

// Get returns the booking, or (nil, nil) when no booking has that id.
// A missing booking is an empty result, not an error.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.ledger.GetBooking(ctx, id)
	if errors.Is(err, database.ErrBookingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) List(ctx context.Context) ([]*models.Booking, error) {
	return s.ledger.ListBookings(ctx)
}

// Estimate prices a booking without mutating it. For an active booking
// the end of the interval is the current time; for a completed one it is
// the stored end time, so the quote matches the receipt.
func (s *BookingService) Estimate(ctx context.Context, id string) (*pricing.Quote, error) {
	booking, err := s.ledger.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	spot, err := s.catalog.GetSpot(ctx, booking.ParkingSpotID)
	if err != nil {
		return nil, err
	}

	endTime := s.now()
	if booking.EndTime != nil {
		endTime = *booking.EndTime
	}

	quote, err := pricing.Compute(booking.StartTime, endTime, spot.HourlyRate)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *BookingService) lockBooking(id string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &bookingLock{}
		s.locks[id] = lock
	}
	lock.holders++
	s.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		s.locksMu.Lock()
		lock.holders--
		if lock.holders == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, spotName, duration string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		SpotID:    booking.ParkingSpotID,
		SpotName:  spotName,
		Status:    booking.Status,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		Duration:  duration,
		TotalCost: booking.TotalCost,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType, status string) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
