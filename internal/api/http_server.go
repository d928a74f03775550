package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"parkhub/internal/catalog"
	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/domain"
	"parkhub/internal/pricing"
	"parkhub/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking API. Booking and catalog routes are
// gated by bearer sessions; admin routes by static API keys.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings domain.BookingService
	catalog  domain.CatalogService
	auth     domain.AuthService
	db       *database.DB
	server   *http.Server
	admin    *AdminAuth
	limiter  *rateLimiter
	logger   zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	bookings domain.BookingService,
	catalogSvc domain.CatalogService,
	authSvc domain.AuthService,
	db *database.DB,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		catalog:  catalogSvc,
		auth:     authSvc,
		db:       db,
		admin:    NewAdminAuth(cfg.Admin),
		limiter:  newRateLimiter(cfg.RateLimit),
	}
	if logger != nil {
		srv.logger = logger.With().Str("component", "http").Logger()
	} else {
		srv.logger = zerolog.Nop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", srv.requireSession(srv.handleLogout))
	mux.HandleFunc("/api/v1/spots", srv.requireSession(srv.handleSpots))
	mux.HandleFunc("/api/v1/spots/", srv.requireSession(srv.handleSpotByID))
	mux.HandleFunc("/api/v1/bookings", srv.requireSession(srv.handleBookings))
	mux.HandleFunc("/api/v1/bookings/", srv.requireSession(srv.handleBookingByID))
	mux.HandleFunc("/api/v1/admin/sync/failed", srv.admin.Wrap(srv.handleFailedSyncTasks))
	mux.HandleFunc("/api/v1/admin/export", srv.admin.Wrap(srv.handleExport))
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.requestIDMiddleware(srv.loggingMiddleware(srv.rateLimitMiddleware(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrBookingNotFound), errors.Is(err, catalog.ErrSpotNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, pricing.ErrNegativeInterval), errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
