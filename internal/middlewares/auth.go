package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Shruti10934/talksy-backend/internal/auth"
	"github.com/Shruti10934/talksy-backend/internal/contextkeys"

	"github.com/google/uuid"
)

// writeAuthError writes JSON-formatted error responses for auth failures
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sessionToken pulls the token from the named cookie, falling back to a
// bearer Authorization header.
func sessionToken(r *http.Request, cookieName string) (string, error) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
		return parts[1], nil
	}
	return "", errors.New("no session token")
}

// RequireUserAuth verifies the user session cookie and puts the user ID in
// the request context.
func RequireUserAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := sessionToken(r, auth.UserCookieName)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Please login to access this route")
				return
			}
			userID, err := auth.ParseUserToken(tokenStr, secret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), contextkeys.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminAuth verifies the admin session cookie.
func RequireAdminAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := sessionToken(r, auth.AdminCookieName)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Only admin can access this route")
				return
			}
			if err := auth.ParseAdminToken(tokenStr, secret); err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired admin token")
				return
			}
			ctx := context.WithValue(r.Context(), contextkeys.AdminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user's ID from context.
func GetUserID(ctx context.Context) uuid.UUID {
	if v := ctx.Value(contextkeys.UserIDKey); v != nil {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
