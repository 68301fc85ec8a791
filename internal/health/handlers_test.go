package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/health"
)

type checkerFunc func(ctx context.Context, timeout time.Duration) error

func (f checkerFunc) Ping(ctx context.Context, timeout time.Duration) error {
	return f(ctx, timeout)
}

func okChecker() health.Checker {
	return checkerFunc(func(context.Context, time.Duration) error { return nil })
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	handler := health.Handler{Checker: okChecker()}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"redis":"ok"}`, rr.Body.String())
}

func TestReadyRedisDown(t *testing.T) {
	handler := health.Handler{Checker: checkerFunc(func(context.Context, time.Duration) error {
		return errors.New("connection refused")
	})}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestReadinessGateDuringShutdown(t *testing.T) {
	handler := health.Handler{Checker: okChecker()}
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	health.SetReady(false)
	rr := httptest.NewRecorder()
	handler.Ready(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	health.SetReady(true)
	rr2 := httptest.NewRecorder()
	handler.Ready(rr2, req)
	require.Equal(t, http.StatusOK, rr2.Code)
}
