package domain

import (
	"context"
	"time"

	"parkhub/internal/models"
	"parkhub/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BookingLedger is the durability boundary for booking records. Creation
// appends, checkout replaces the record in place; nothing is ever deleted.
type BookingLedger interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CompleteBooking(ctx context.Context, id string, endTime time.Time, totalCost int64) (*models.Booking, error)
}

// CatalogSource supplies parking spot records. Read-only from the
// booking core's perspective.
type CatalogSource interface {
	GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error)
	ListSpots(ctx context.Context) ([]*models.ParkingSpot, error)
}

type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	UpdateAccountActivity(ctx context.Context, id int64) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID string, booking *models.Booking, status string) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BookingService interface {
	Open(ctx context.Context, spotID string) (*models.Booking, error)
	Close(ctx context.Context, bookingID string) (*models.Receipt, error)
	// Get returns (nil, nil) when no booking has the given id.
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context) ([]*models.Booking, error)
	Estimate(ctx context.Context, id string) (*pricing.Quote, error)
}

type CatalogService interface {
	GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error)
	ListSpots(ctx context.Context) ([]*models.ParkingSpot, error)
}

type AuthService interface {
	Register(ctx context.Context, email, fullName, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
