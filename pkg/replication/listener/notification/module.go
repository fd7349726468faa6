package notification

import (
	"time"

	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
)

// HandlerParams defines the dependencies of the notification Handler.
type HandlerParams struct {
	fx.In
	Config   *config.Config
	Recorder metrics.MetricRecorder `optional:"true"`
}

func provideHandler(p HandlerParams) *Handler {
	nc := p.Config.Syncwave.Notification
	timeout := time.Duration(nc.TimeoutSeconds) * time.Second
	notifiers := make([]port.Notifier, 0, len(nc.Webhooks))
	for _, wh := range nc.Webhooks {
		notifiers = append(notifiers, NewWebhookNotifier(wh.Name, wh.URL, timeout, nil))
	}
	return NewHandler(notifiers, nc.ConnectionURLFormat, p.Recorder)
}

// Module provides the notification Handler built from the `notification` section.
var Module = fx.Options(
	fx.Provide(provideHandler),
)
