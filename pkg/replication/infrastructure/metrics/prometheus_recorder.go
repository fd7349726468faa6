// Package metrics provides the Prometheus and OpenTelemetry implementations of the
// core metrics interfaces.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of metrics.MetricRecorder.
// Every collector lives on the recorder's own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	activityReplication   prometheus.Counter
	resetRequest          prometheus.Counter
	bytesSynced           *prometheus.CounterVec
	recordsSynced         *prometheus.CounterVec
	workloadStatusUpdates *prometheus.CounterVec
	notificationsSent     *prometheus.CounterVec
	jobStatusTransitions  *prometheus.CounterVec
	operationDuration     *prometheus.HistogramVec
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a recorder whose metric names start with namespace.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		activityReplication: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_replication_total",
			Help:      "Replication activity invocations.",
		}),
		resetRequest: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_request_total",
			Help:      "Replication activity invocations that reset streams.",
		}),
		bytesSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_bytes_synced_total",
			Help:      "Bytes synced by finished replication attempts.",
		}, []string{"status"}),
		recordsSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_records_synced_total",
			Help:      "Records synced by finished replication attempts.",
		}, []string{"status"}),
		workloadStatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workload_status_update_total",
			Help:      "Terminal status reports sent to the workload service.",
		}, []string{"status", "success"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notification attempts by channel.",
		}, []string{"client", "trigger", "success"}),
		jobStatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_status_transition_total",
			Help:      "Job status writes by target status and outcome.",
		}, []string{"status", "accepted"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of replication operations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 10),
		}, []string{"operation", "status"}),
	}

	registry.MustRegister(
		r.activityReplication,
		r.resetRequest,
		r.bytesSynced,
		r.recordsSynced,
		r.workloadStatusUpdates,
		r.notificationsSent,
		r.jobStatusTransitions,
		r.operationDuration,
	)
	return r
}

// NewPrometheusRecorderFromConfig provides the configured recorder, or a no-op one when metrics are disabled.
func NewPrometheusRecorderFromConfig(cfg *config.Config) metrics.MetricRecorder {
	if !cfg.Syncwave.Metrics.Enabled {
		logger.Infof("Metrics: disabled by configuration.")
		return metrics.NewNoOpMetricRecorder()
	}
	return NewPrometheusRecorder(cfg.Syncwave.Metrics.Namespace)
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordReplicationStarted(ctx context.Context, isReset bool) {
	r.activityReplication.Inc()
	if isReset {
		r.resetRequest.Inc()
	}
}

func (r *PrometheusRecorder) RecordReplicationSynced(ctx context.Context, status string, bytesSynced, recordsSynced int64) {
	if bytesSynced > 0 {
		r.bytesSynced.WithLabelValues(status).Add(float64(bytesSynced))
	}
	if recordsSynced > 0 {
		r.recordsSynced.WithLabelValues(status).Add(float64(recordsSynced))
	}
	logger.Debugf("Metrics: replication %s synced %d bytes / %d records.", status, bytesSynced, recordsSynced)
}

func (r *PrometheusRecorder) RecordWorkloadStatusReported(ctx context.Context, status string, success bool) {
	r.workloadStatusUpdates.WithLabelValues(status, strconv.FormatBool(success)).Inc()
}

func (r *PrometheusRecorder) RecordNotificationSent(ctx context.Context, client, trigger string, success bool) {
	r.notificationsSent.WithLabelValues(client, trigger, strconv.FormatBool(success)).Inc()
}

func (r *PrometheusRecorder) RecordJobStatusTransition(ctx context.Context, status string, accepted bool) {
	r.jobStatusTransitions.WithLabelValues(status, strconv.FormatBool(accepted)).Inc()
}

// RecordDuration observes duration under name. Only the "status" tag becomes a label.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDuration.WithLabelValues(name, tags["status"]).Observe(duration.Seconds())
}
