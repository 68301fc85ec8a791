// Package notify delivers domain events to external consumers.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/foodpick-ng/backend/internal/events"
	"github.com/foodpick-ng/backend/internal/obs"
)

// Webhook posts signed event payloads to a configured endpoint. It implements
// events.Notifier; a zero URL disables delivery.
type Webhook struct {
	URL    string
	Secret string
	Client *http.Client
	Topics map[string]struct{}
	Now    func() time.Time
}

// NewWebhook builds a notifier subscribed to the given topics. An empty topic
// list subscribes to the order lifecycle.
func NewWebhook(rawURL, secret string, topics ...string) *Webhook {
	if len(topics) == 0 {
		topics = []string{events.TopicOrderCreated, events.TopicOrderStatusChanged}
	}
	subscribed := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		subscribed[t] = struct{}{}
	}
	return &Webhook{
		URL:    rawURL,
		Secret: secret,
		Client: HTTPClient(5 * time.Second),
		Topics: subscribed,
	}
}

func (w *Webhook) now() time.Time {
	if w != nil && w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Notify delivers one event. Events outside the subscription are skipped
// silently.
func (w *Webhook) Notify(ctx context.Context, ev events.Event) error {
	if w == nil || w.URL == "" {
		return nil
	}
	if _, ok := w.Topics[ev.Topic]; !ok {
		return nil
	}
	if err := validateURL(w.URL); err != nil {
		return err
	}
	body, err := json.Marshal(struct {
		EventID    string          `json:"eventId"`
		Topic      string          `json:"topic"`
		Data       json.RawMessage `json:"data"`
		OccurredAt time.Time       `json:"occurredAt"`
	}{
		EventID:    ev.ID,
		Topic:      ev.Topic,
		Data:       ev.Payload,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		return err
	}

	ts := w.now().Unix()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "foodpick-webhooks/1.0")
	req.Header.Set("X-Event-ID", ev.ID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", ComputeSignature(w.Secret, ts, ev.ID, body))

	client := w.Client
	if client == nil {
		client = HTTPClient(5 * time.Second)
	}
	resp, err := client.Do(req)
	if err != nil {
		recordDelivery("failed")
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordDelivery("failed")
		return fmt.Errorf("webhook delivery failed: status %d", resp.StatusCode)
	}
	recordDelivery("delivered")
	return nil
}

func recordDelivery(result string) {
	if obs.WebhookDeliveriesTotal != nil {
		obs.WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	}
}

// ComputeSignature calculates the webhook signature for the provided payload.
// The format is HMAC-SHA256 over "<ts>.<eventID>.<body>" using the endpoint
// secret.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HTTPClient returns an HTTP client configured for webhook delivery.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(&http.Transport{}),
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("webhook url must be http or https")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	return nil
}
