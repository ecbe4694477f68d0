package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transition is the event shape pushed to the downstream task-creation
// system when a process changes status.
type Transition struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	Protocol   string    `json:"protocol"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier emits one-way transition notifications. The sync gateway calls
// it after a transition commits; correctness never depends on delivery.
type Notifier interface {
	NotifyTransition(ctx context.Context, transition Transition) error
}

// NoopNotifier discards notifications. Used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyTransition(ctx context.Context, transition Transition) error {
	return nil
}

// WebhookNotifier posts transitions as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier with the given timeout.
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// NotifyTransition delivers the event best-effort. Failures are logged and
// returned but callers are expected to swallow them.
func (n *WebhookNotifier) NotifyTransition(ctx context.Context, transition Transition) error {
	payload, err := json.Marshal(transition)
	if err != nil {
		return fmt.Errorf("failed to marshal transition: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build task notification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("task notification failed",
			zap.String("protocol", transition.Protocol),
			zap.Error(err),
		)
		return fmt.Errorf("failed to deliver task notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("task notification rejected",
			zap.String("protocol", transition.Protocol),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("task notification rejected with status %d", resp.StatusCode)
	}

	return nil
}
