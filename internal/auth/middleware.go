package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
)

// contextKey is the type for values this package stores on a request context.
type contextKey string

const userIDKey = contextKey("userID")

// Verifier is the part of TokenIssuer the middleware needs.
type Verifier interface {
	VerifyAccess(token string) (string, error)
}

// JWTMiddleware protects routes with a bearer access token.
// A missing token answers 401, a rejected one 403.
func JWTMiddleware(v Verifier) func(http.Handler) http.Handler {
	return jwtMiddleware(v, BearerToken)
}

// WebSocketMiddleware is JWTMiddleware for websocket upgrades. Browsers cannot
// set headers on an upgrade, so the "token" query parameter is accepted too.
func WebSocketMiddleware(v Verifier) func(http.Handler) http.Handler {
	return jwtMiddleware(v, func(r *http.Request) string {
		if token := BearerToken(r); token != "" {
			return token
		}
		if r.Header.Get("Authorization") != "" {
			return ""
		}
		return r.URL.Query().Get("token")
	})
}

func jwtMiddleware(v Verifier, extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extract(r)
			if tokenStr == "" {
				writeAuthError(w, http.StatusUnauthorized, "Missing auth token")
				return
			}

			userID, err := v.VerifyAccess(tokenStr)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("Rejected access token")
				msg := "Invalid auth token"
				if errors.Is(err, ErrExpiredToken) {
					msg = "Auth token has expired"
				}
				writeAuthError(w, http.StatusForbidden, msg)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken takes the token from the Authorization header.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WithUserID stores the authenticated user ID on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
