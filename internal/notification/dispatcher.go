package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/config"
)

// Dispatcher delivers lifecycle event notifications to family members.
// Delivery is fire-and-forget: a failed dispatch is logged and never
// surfaces to the operation that triggered it.
type Dispatcher interface {
	Notify(ctx context.Context, event *Event)
}

// Event is the payload sent to the notification collaborator
type Event struct {
	CreatorID  string   `json:"creatorId"`
	EventType  string   `json:"eventType"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
	OccurredAt int64    `json:"occurredAt"`
}

// HTTPDispatcher posts events to the external notification service
type HTTPDispatcher struct {
	httpClient *http.Client
	config     *config.NotificationConfig
	logger     *logrus.Logger
}

// NewHTTPDispatcher creates a new notification dispatcher instance
func NewHTTPDispatcher(cfg *config.NotificationConfig, logger *logrus.Logger) *HTTPDispatcher {
	timeout := 10 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &HTTPDispatcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// Notify delivers an event to all recipients. Errors are logged and
// swallowed.
func (d *HTTPDispatcher) Notify(ctx context.Context, event *Event) {
	if !d.config.Enabled || d.config.BaseURL == "" {
		d.logger.Debug("Notification dispatcher not configured, skipping dispatch")
		return
	}

	if len(event.Recipients) == 0 {
		return
	}

	if err := d.post(ctx, event); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"creator_id": event.CreatorID,
			"event_type": event.EventType,
			"recipients": len(event.Recipients),
		}).Error("Failed to dispatch notification")
		return
	}

	d.logger.WithFields(logrus.Fields{
		"creator_id": event.CreatorID,
		"event_type": event.EventType,
		"recipients": len(event.Recipients),
	}).Debug("Notification dispatched")
}

func (d *HTTPDispatcher) post(ctx context.Context, event *Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	url := d.config.BaseURL + "/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call notification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification service returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
