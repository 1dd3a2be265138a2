package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/adscale/pricecrypt/api/internal/core/services"
)

type TokenVerifier interface {
	Verify(token string) (*services.ServiceClaims, error)
}

// ServiceAuth admits backend callers holding a service token.
type ServiceAuth struct {
	Tokens TokenVerifier
	Logger *slog.Logger
}

func NewServiceAuth(tokens TokenVerifier, logger *slog.Logger) *ServiceAuth {
	return &ServiceAuth{Tokens: tokens, Logger: logger}
}

// ==============================================================================
// 1. Identity
// ==============================================================================

func (m *ServiceAuth) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			http.Error(w, `{"message": "Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.Tokens.Verify(tokenString)
		if err != nil {
			m.Logger.Warn("rejected service token", slog.String("path", r.URL.Path), slog.Any("error", err))
			http.Error(w, `{"message": "Invalid token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(services.WithClaims(r.Context(), claims)))
	})
}

// ==============================================================================
// 2. Scopes
// ==============================================================================

// RequireScope verifies the token and then demands every listed scope.
func (m *ServiceAuth) RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := services.ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, `{"message": "Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			for _, scope := range scopes {
				if !claims.HasScope(scope) {
					m.Logger.Warn("missing scope",
						slog.String("subject", claims.Subject),
						slog.String("scope", scope),
					)
					http.Error(w, `{"message": "Forbidden"}`, http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
