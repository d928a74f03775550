package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"parkhub/internal/database"
	"parkhub/internal/domain"
	"parkhub/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// AuthService issues bearer sessions for registered accounts. Password
// hashes never leave the account store.
type AuthService struct {
	accounts domain.AccountStore
	sessions domain.SessionRepository
	logger   *zerolog.Logger
}

func NewAuthService(accounts domain.AccountStore, sessions domain.SessionRepository, logger *zerolog.Logger) *AuthService {
	return &AuthService{accounts: accounts, sessions: sessions, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, email, fullName, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("invalid email")
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", email).Int64("account_id", account.ID).Msg("account registered")
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			// Не раскрываем, существует ли аккаунт
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := &models.Session{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateAccountActivity(ctx, account.ID); err != nil {
		s.logger.Warn().Err(err).Int64("account_id", account.ID).Msg("update activity error")
	}

	s.logger.Info().Int64("account_id", account.ID).Msg("login")
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.ClearSession(ctx, token)
}

// Authenticate resolves a bearer token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *AuthService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return s.sessions.CheckRateLimit(ctx, key, limit, window)
}
