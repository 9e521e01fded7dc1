// Package middleware holds the HTTP middleware chain of the server:
// panic recovery, request logging, rate limiting and bearer authentication.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/fieldkeeper/internal/server/handlers"
	"github.com/iudanet/fieldkeeper/internal/server/jwt"
)

// TokenValidator проверяет access token
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware создает middleware для проверки JWT токена
func AuthMiddleware(logger *slog.Logger, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.Warn("Missing or malformed Authorization header", "path", r.URL.Path)
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateAccessToken(tokenString)
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			logger.Debug("User authenticated", "user_id", claims.UserID)

			ctx := handlers.WithUser(r.Context(), claims.UserID, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken ожидает формат: "Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
