package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/catalog"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const maxResponseBody = 1024

// WebhookNotifier posts Slack-compatible `{"text": ...}` payloads to one webhook URL.
type WebhookNotifier struct {
	name       string
	url        string
	httpClient *http.Client
}

var _ port.Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a WebhookNotifier. A nil httpClient uses one with timeout.
func NewWebhookNotifier(name, url string, timeout time.Duration, httpClient *http.Client) *WebhookNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger.Infof("Notification: Initializing webhook notifier '%s'.", name)
	return &WebhookNotifier{name: name, url: url, httpClient: httpClient}
}

// Name returns the channel name used in logs and metrics.
func (n *WebhookNotifier) Name() string {
	return n.name
}

// NotifySchemaPropagated sends the schema-propagation message for event.
func (n *WebhookNotifier) NotifySchemaPropagated(ctx context.Context, event port.SchemaChangeEvent) error {
	return n.send(ctx, SchemaPropagatedMessage(event))
}

// SchemaPropagatedMessage renders the text sent when schema changes were applied to a connection.
func SchemaPropagatedMessage(event port.SchemaChangeEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your source schema has changed for connection '%s' and the following changes were automatically propagated:\n\n", event.ConnectionName)
	b.WriteString(catalog.BuildSummary(event.Diff))
	fmt.Fprintf(&b, "\nVisit the connection page: %s\n", event.ConnectionURL)
	return b.String()
}

func (n *WebhookNotifier) send(ctx context.Context, text string) error {
	if n.url == "" {
		return fmt.Errorf("webhook '%s' has no url", n.name)
	}
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook '%s' request failed: %w", n.name, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook '%s' returned %d: %s", n.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	logger.Debugf("Notification: Webhook '%s' acknowledged: %s", n.name, strings.TrimSpace(string(body)))
	return nil
}
