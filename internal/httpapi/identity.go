package httpapi

import (
	"context"
	"net/http"

	"duplex/internal/logging"
)

// UserIDHeader names the initiating user on REST requests. Authentication
// itself happens upstream; this boundary trusts the header the way the
// realtime endpoint trusts the user id in its path.
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// RequireUser rejects requests without a user identity and stores the
// identity in the request context for handlers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			logging.FromContext(r.Context()).Warn("request without user identity",
				"method", r.Method,
				"path", r.URL.Path,
			)
			writeError(w, http.StatusUnauthorized, "MISSING_IDENTITY", "request has no user identity")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the identity stored by RequireUser.
func UserFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
