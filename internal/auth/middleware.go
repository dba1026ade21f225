package auth

import (
	"net/http"
	"strings"

	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/fdg312/diet-hub/internal/userctx"
)

// Middleware: middleware для проверки авторизации
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// Handler выбирает режим по конфигурации: AUTH_MODE=none, обязательный
// или необязательный JWT
func (m *Middleware) Handler(next http.Handler) http.Handler {
	switch {
	case m.config.AuthMode == config.AuthModeNone:
		return m.Anonymous(next)
	case m.config.AuthRequired:
		return m.RequireAuth(next)
	default:
		return m.OptionalAuth(next)
	}
}

// Anonymous: все запросы выполняются от имени "default" с ролью admin
func (m *Middleware) Anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), AnonymousUserID, storage.RoleAdmin)))
	})
}

// RequireAuth: middleware для защиты эндпоинтов
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.authenticateHeader(r)
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Role)))
	})
}

// OptionalAuth validates the Bearer token only when it is provided.
// Without a token the request runs as the shared "default" user.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), AnonymousUserID, storage.RoleUser)))
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.authenticateHeader(r)
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Role)))
	})
}

// RequireAdmin пропускает только администраторов
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userctx.GetUserID(r.Context()); !ok {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		if !userctx.IsAdmin(r.Context()) {
			writeErrorResponse(w, http.StatusForbidden, "forbidden", "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminFunc is RequireAdmin for plain handler functions.
func RequireAdminFunc(next http.HandlerFunc) http.HandlerFunc {
	return RequireAdmin(next).ServeHTTP
}

func (m *Middleware) authenticateHeader(r *http.Request) (Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Claims{}, ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Claims{}, ErrInvalidToken
	}

	return m.service.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
}

// /v1/auth/me требует токен, остальные /v1/auth/* открыты
func isPublicPath(path string) bool {
	if path == "/v1/auth/me" {
		return false
	}
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
