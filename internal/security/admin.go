package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/foodpick-ng/backend/internal/common"
)

// AdminAuth guards the admin surface with a static bearer token.
type AdminAuth struct {
	Token string
}

// Middleware rejects requests whose Authorization header does not carry the
// configured token. Comparison is constant time. An empty configured token
// locks the admin surface entirely.
func (a AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(a.Token) == "" {
			common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "admin access not configured", nil)
			return
		}
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(raw[len(prefix):])
		if constantTimeEqual(token, a.Token) != 1 {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func constantTimeEqual(a, b string) int {
	if len(a) != len(b) {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b))
}
