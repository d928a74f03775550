package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkhub/internal/models"
)

func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (email, full_name, password_hash, last_activity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	lastActivity := account.LastActivity
	if lastActivity.IsZero() {
		lastActivity = now
	}
	result, err := db.ExecContext(ctx, query,
		account.Email,
		account.FullName,
		account.PasswordHash,
		lastActivity,
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	account.ID = id
	account.LastActivity = lastActivity
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT id, email, full_name, password_hash, last_activity, created_at, updated_at
              FROM accounts WHERE email = ?`
	return db.getAccount(ctx, query, email)
}

func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT id, email, full_name, password_hash, last_activity, created_at, updated_at
              FROM accounts WHERE id = ?`
	return db.getAccount(ctx, query, id)
}

func (db *DB) getAccount(ctx context.Context, query string, arg any) (*models.Account, error) {
	var a models.Account
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.FullName, &a.PasswordHash,
		&a.LastActivity, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

func (db *DB) UpdateAccountActivity(ctx context.Context, id int64) error {
	query := `UPDATE accounts SET last_activity = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to update account activity: %w", err)
	}
	return nil
}
