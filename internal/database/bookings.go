package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkhub/internal/models"
)

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				id, parking_spot_id, start_time, end_time, status, total_cost,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.ParkingSpotID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.TotalCost,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT id, parking_spot_id, start_time, end_time, status, total_cost,
	                 created_at, updated_at
              FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT id, parking_spot_id, start_time, end_time, status, total_cost,
	                 created_at, updated_at
              FROM bookings ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CompleteBooking transitions an active booking to completed, setting end
// time and total cost in one conditional update. The status guard makes a
// concurrent double-checkout lose instead of recomputing the receipt.
func (db *DB) CompleteBooking(ctx context.Context, id string, endTime time.Time, totalCost int64) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read booking status: %w", err)
	}
	if status != models.StatusActive {
		return nil, ErrAlreadyCompleted
	}

	query := `UPDATE bookings
              SET end_time = ?, status = ?, total_cost = ?, updated_at = ?
              WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, query, endTime, models.StatusCompleted, totalCost, time.Now(), id, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to complete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrAlreadyCompleted
	}

	updated, err := scanBooking(tx.QueryRowContext(ctx, `SELECT id, parking_spot_id, start_time, end_time, status, total_cost, created_at, updated_at FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}
	return updated, nil
}

func (db *DB) ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT id, parking_spot_id, start_time, end_time, status, total_cost,
	                 created_at, updated_at
              FROM bookings WHERE start_time >= ? AND start_time < ? ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) CountBookingsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var endTime sql.NullTime
	var totalCost sql.NullInt64
	err := row.Scan(
		&b.ID, &b.ParkingSpotID, &b.StartTime, &endTime, &b.Status, &totalCost,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		b.EndTime = &endTime.Time
	}
	if totalCost.Valid {
		b.TotalCost = &totalCost.Int64
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}
