package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader carries the storefront session identifier. The cart and the
// selected delivery address are namespaced by it.
const SessionHeader = "X-Session-ID"

type sessionKey struct{}

// WithSessionID stores the session identifier on the context.
func WithSessionID(ctx context.Context, sid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, sid)
}

// SessionID extracts the session identifier from context if present.
func SessionID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	sid, ok := ctx.Value(sessionKey{}).(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}

// SessionMiddleware assigns a session id to requests that lack one and echoes
// it back so the client can persist it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(SessionHeader))
		if sid == "" {
			sid = uuid.NewString()
		}
		w.Header().Set(SessionHeader, sid)
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
	})
}
