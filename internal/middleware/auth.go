package middleware

import (
	"context"
	"net/http"

	"github.com/amandakfriis/photo-gallery-app/internal/web"
)

const sessionCookie = "session_id"

// SessionResolver resolves a session token to a user id. An empty id with a
// nil error means the session is absent or expired.
type SessionResolver interface {
	Get(ctx context.Context, token string) (string, error)
}

type ctxKey int

const userIDKey ctxKey = iota

// RequireAuth validates the session cookie and injects the user id into the
// request context. Missing cookie, unknown token, and expired token all
// produce the same 401.
func RequireAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie)
			if err != nil {
				web.Error(w, http.StatusUnauthorized, web.KindUnauthenticated, "not authenticated")
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || userID == "" {
				web.Error(w, http.StatusUnauthorized, web.KindUnauthenticated, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id injected by RequireAuth, or ""
// when the request did not pass through it.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
