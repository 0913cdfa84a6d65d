package outbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"adminBackend/internal/logger"
)

// LogPublisher writes events to the log. It is the default when no broker or
// webhook is configured.
type LogPublisher struct {
	Log logger.Logger
}

func (p *LogPublisher) Publish(_ context.Context, id string, topic string, payload []byte) error {
	if p.Log != nil {
		p.Log.Info(fmt.Sprintf("[Outbox] event %s (%s): %s", id, topic, string(payload)))
	}
	return nil
}

// WebhookPublisher POSTs each event as JSON to the CRM.
type WebhookPublisher struct {
	url    string
	client *http.Client
}

func NewWebhookPublisher(url string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookPublisher{url: url, client: &http.Client{Timeout: timeout}}
}

func (p *WebhookPublisher) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", id)
	req.Header.Set("X-Event-Type", topic)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// FanOut publishes to every publisher and fails if any of them fails.
type FanOut []Publisher

func (f FanOut) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	for _, p := range f {
		if err := p.Publish(ctx, id, topic, payload); err != nil {
			return err
		}
	}
	return nil
}
