package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"storefront/internal/order/domain"
)

type ctxKey int

const (
	requesterKey ctxKey = iota
	sessionKey
)

// IdentityMiddleware builds the requester identity from trusted headers
// set by the edge proxy (replace with real JWT validation when the
// gateway terminates auth itself).
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requester := domain.Requester{
			CustomerID: r.Header.Get("X-User-ID"),
			Email:      r.Header.Get("X-User-Email"),
			Admin:      r.Header.Get("X-Admin") == "true",
		}
		ctx := context.WithValue(r.Context(), requesterKey, requester)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the cart session. A client without a
// session gets a fresh one; the id is echoed back so the client can
// persist it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		w.Header().Set("X-Session-ID", sessionID)

		ctx := context.WithValue(r.Context(), sessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requesterFromContext(ctx context.Context) domain.Requester {
	if requester, ok := ctx.Value(requesterKey).(domain.Requester); ok {
		return requester
	}
	return domain.Requester{}
}

func sessionFromContext(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionKey).(string); ok {
		return sessionID
	}
	return ""
}
