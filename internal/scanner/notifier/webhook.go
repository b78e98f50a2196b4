package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-signal-scryper/internal/scanner/dto"
)

type webhookDispatcher struct {
	url        string
	httpClient *http.Client
}

// NewWebhookDispatcher POSTs the notification as JSON to url.
func NewWebhookDispatcher(url string, timeout time.Duration) Channel {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &webhookDispatcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *webhookDispatcher) Name() string { return "webhook" }

func (d *webhookDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
