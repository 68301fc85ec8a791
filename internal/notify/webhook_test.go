package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/events"
	"github.com/foodpick-ng/backend/internal/notify"
)

func orderEvent() events.Event {
	return events.Event{
		ID:          "ev-1",
		Topic:       events.TopicOrderCreated,
		AggregateID: "order-1",
		Payload:     json.RawMessage(`{"total":10700}`),
		OccurredAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifySignsPayload(t *testing.T) {
	t.Parallel()

	var gotSignature, gotTimestamp, gotEventID string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		gotTimestamp = r.Header.Get("X-Timestamp")
		gotEventID = r.Header.Get("X-Event-ID")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := notify.NewWebhook(srv.URL, "secret")
	wh.Now = func() time.Time { return time.Unix(1717243200, 0) }

	require.NoError(t, wh.Notify(context.Background(), orderEvent()))

	require.Equal(t, "ev-1", gotEventID)
	require.Equal(t, "1717243200", gotTimestamp)
	require.Equal(t, notify.ComputeSignature("secret", 1717243200, "ev-1", gotBody), gotSignature)

	var payload struct {
		EventID string          `json:"eventId"`
		Topic   string          `json:"topic"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Equal(t, "ev-1", payload.EventID)
	require.Equal(t, events.TopicOrderCreated, payload.Topic)
	require.JSONEq(t, `{"total":10700}`, string(payload.Data))
}

func TestNotifySkipsUnsubscribedTopics(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	wh := notify.NewWebhook(srv.URL, "secret")
	ev := orderEvent()
	ev.Topic = events.TopicCartItemAdded
	require.NoError(t, wh.Notify(context.Background(), ev))
	require.False(t, called)
}

func TestNotifyNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := notify.NewWebhook(srv.URL, "secret")
	require.Error(t, wh.Notify(context.Background(), orderEvent()))
}

func TestNotifyDisabledWithoutURL(t *testing.T) {
	t.Parallel()

	wh := notify.NewWebhook("", "secret")
	require.NoError(t, wh.Notify(context.Background(), orderEvent()))
}

func TestNotifyRejectsNonLocalPlainHTTP(t *testing.T) {
	t.Parallel()

	wh := notify.NewWebhook("http://example.com/hook", "secret")
	require.Error(t, wh.Notify(context.Background(), orderEvent()))
}
