package notification

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// TriggerSchemaPropagated labels notifications about applied schema changes.
const TriggerSchemaPropagated = "schema_propagated"

// Handler delivers a notification through every configured channel.
type Handler struct {
	notifiers []port.Notifier
	urlFormat string
	recorder  metrics.MetricRecorder
}

// NewHandler creates a Handler. urlFormat, when set, builds the connection url from the
// workspace id and the connection id for events that carry none.
func NewHandler(notifiers []port.Notifier, urlFormat string, recorder metrics.MetricRecorder) *Handler {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Handler{notifiers: notifiers, urlFormat: urlFormat, recorder: recorder}
}

// SchemaPropagated notifies every channel. A failing channel does not stop the others;
// all failures are returned together.
func (h *Handler) SchemaPropagated(ctx context.Context, event port.SchemaChangeEvent) error {
	if len(h.notifiers) == 0 {
		logger.Debugf("Notification: No channels configured, skipping schema change for connection %s.", event.ConnectionID)
		return nil
	}
	if event.ConnectionURL == "" && h.urlFormat != "" {
		event.ConnectionURL = fmt.Sprintf(h.urlFormat, event.WorkspaceID, event.ConnectionID)
	}

	var result *multierror.Error
	for _, n := range h.notifiers {
		err := n.NotifySchemaPropagated(ctx, event)
		h.recorder.RecordNotificationSent(ctx, n.Name(), TriggerSchemaPropagated, err == nil)
		if err != nil {
			logger.Warnf("Notification: Channel '%s' failed for connection %s: %v", n.Name(), event.ConnectionID, err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
