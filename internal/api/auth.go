package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"parkhub/internal/config"
	"parkhub/internal/models"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the authenticated session, if present.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*models.Session)
	return session, ok
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireSession gates a handler behind bearer-token auth.
func (s *HTTPServer) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		session, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// AdminAuth gates operational endpoints with static API keys.
type AdminAuth struct {
	cfg     config.APIAdminConfig
	clients map[string]config.APIClientKey
}

func NewAdminAuth(cfg config.APIAdminConfig) *AdminAuth {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &AdminAuth{cfg: cfg, clients: m}
}

func (a *AdminAuth) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(a.clients) == 0 {
			writeError(w, http.StatusForbidden, "admin api is disabled")
			return
		}

		header := strings.TrimSpace(strings.ToLower(a.cfg.HeaderAPIKey))
		if header == "" {
			header = "x-api-key"
		}

		apiKey := strings.TrimSpace(r.Header.Get(header))
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		if !a.validKey(apiKey) {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next(w, r)
	}
}

func (a *AdminAuth) validKey(apiKey string) bool {
	// Сравниваем со всеми ключами, чтобы не зависеть от времени поиска
	valid := false
	for key := range a.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			valid = true
		}
	}
	return valid
}
