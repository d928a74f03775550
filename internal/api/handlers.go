package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"parkhub/internal/export"
	"parkhub/internal/metrics"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("auth_register")

	var body struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	account, err := s.auth.Register(r.Context(), body.Email, body.FullName, body.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("auth_login")

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Перебор паролей ограничиваем по email
	if allowed, err := s.auth.CheckRateLimit(r.Context(), "login:"+strings.ToLower(strings.TrimSpace(body.Email)), loginRateLimit, loginRateWindow); err == nil && !allowed {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	session, err := s.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      session.Token,
		"account_id": session.AccountID,
		"email":      session.Email,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("auth_logout")

	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSpots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("spots")

	spots, err := s.catalog.ListSpots(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spots": spots})
}

func (s *HTTPServer) handleSpotByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("spot")

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/spots/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "spot id is required")
		return
	}

	spot, err := s.catalog.GetSpot(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("bookings_list")
		bookings, err := s.bookings.List(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})

	case http.MethodPost:
		metrics.IncHTTP("bookings_open")
		var body struct {
			SpotID string `json:"spot_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.SpotID) == "" {
			writeError(w, http.StatusBadRequest, "spot_id is required")
			return
		}

		booking, err := s.bookings.Open(r.Context(), body.SpotID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, booking)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBookingByID dispatches /api/v1/bookings/{id}[/estimate|/checkout].
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("booking_get")
		booking, err := s.bookings.Get(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if booking == nil {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case len(parts) == 2 && parts[1] == "estimate":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("booking_estimate")
		quote, err := s.bookings.Estimate(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"totalCost": quote.TotalCost,
			"duration":  quote.Duration,
		})

	case len(parts) == 2 && parts[1] == "checkout":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("booking_checkout")
		receipt, err := s.bookings.Close(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, receipt)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleFailedSyncTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_sync_failed")

	tasks, err := s.db.GetFailedSyncTasks(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleExport streams the bookings xlsx report.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_export")

	bookings, err := s.bookings.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	spots, err := s.catalog.ListSpots(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	f, err := export.BuildWorkbook(bookings, spots)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings_report.xlsx"`)
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("write report error")
	}
}
