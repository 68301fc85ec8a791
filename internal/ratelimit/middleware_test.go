package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/ratelimit"
)

func newHandler(t *testing.T, perMinute int64) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lim, err := ratelimit.NewRedisLimiter(client, perMinute)
	require.NoError(t, err)
	return ratelimit.Handler{Limiter: lim}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func do(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLimitEnforced(t *testing.T) {
	t.Parallel()

	h := newHandler(t, 2)
	require.Equal(t, http.StatusOK, do(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusOK, do(h, "10.0.0.1:1234").Code)

	rr := do(h, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestBucketsAreSeparatedByClient(t *testing.T) {
	t.Parallel()

	h := newHandler(t, 1)
	require.Equal(t, http.StatusOK, do(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, do(h, "10.0.0.1:9999").Code)
	require.Equal(t, http.StatusOK, do(h, "10.0.0.2:1234").Code)
}

func TestHeadersExposed(t *testing.T) {
	t.Parallel()

	h := newHandler(t, 5)
	rr := do(h, "10.0.0.3:1234")
	require.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "4", rr.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))
}
