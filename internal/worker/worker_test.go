package worker

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"parkhub/internal/database"
	"parkhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	upsertCalls int
	statusCalls int
	err         error
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	f.upsertCalls++
	return f.err
}

func (f *fakeSheets) UpdateBookingStatus(ctx context.Context, bookingID string, status string) error {
	f.statusCalls++
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (string, int, sql.NullTime) {
	t.Helper()
	var status string
	var retryCount int
	var nextRetry sql.NullTime
	err := db.QueryRow(`SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id).
		Scan(&status, &retryCount, &nextRetry)
	require.NoError(t, err)
	return status, retryCount, nextRetry
}

func testBooking(id string) *models.Booking {
	return &models.Booking{
		ID:            id,
		ParkingSpotID: "1",
		StartTime:     time.Now(),
		Status:        models.StatusActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	booking := testBooking("b1")
	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""))

	task, ok := worker.tryLocalQueue()
	require.True(t, ok)
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, "completed", status)
	assert.Equal(t, 0, retryCount)
	assert.False(t, nextRetry.Valid)
	assert.Equal(t, 1, sheets.upsertCalls)
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)
	ctx := context.Background()

	booking := testBooking("b2")
	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""))

	task, ok := worker.tryLocalQueue()
	require.True(t, ok)
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, "retry", status)
	assert.Equal(t, 1, retryCount)
	require.True(t, nextRetry.Valid)
	assert.True(t, nextRetry.Time.After(time.Now()))
}

func TestProcessTaskFail(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{MaxRetries: 1, InitialDelay: time.Second}, nil)
	ctx := context.Background()

	booking := testBooking("b3")
	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""))

	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, "failed", status)
}

func TestProcessTaskUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, worker.EnqueueTask(ctx, TaskUpdateStatus, "b4", nil, models.StatusCompleted))

	task, ok := worker.tryLocalQueue()
	require.True(t, ok)
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, "completed", status)
	assert.Equal(t, 1, sheets.statusCalls)
}

func TestEnqueueValidation(t *testing.T) {
	db := newTestDB(t)
	worker := NewSheetsWorker(db, &fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	assert.Error(t, worker.EnqueueTask(ctx, "", "b1", nil, ""))
	assert.Error(t, worker.EnqueueTask(ctx, TaskUpsert, "", nil, ""))

	// id берется из брони, если не передан
	booking := testBooking("b5")
	assert.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, "", booking, ""))
}

func TestEnqueueViaRedis(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sheets := &fakeSheets{}
	worker := NewSheetsWorker(db, sheets, client, RetryPolicy{}, nil)
	ctx := context.Background()

	booking := testBooking("b6")
	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""))

	// Задача ушла в redis, локальная очередь пуста
	_, ok := worker.tryLocalQueue()
	assert.False(t, ok)

	task, ok := worker.tryRedis(ctx)
	require.True(t, ok)
	assert.Equal(t, "b6", task.BookingID)

	worker.processTask(ctx, &task)
	assert.Equal(t, 1, sheets.upsertCalls)
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 10*time.Second, policy.NextDelay(10))

	// Нулевые параметры не ломают расчет
	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(0))
}
