package metrics

import (
	"context"
	"time"
)

// MetricRecorder records the operational metrics of the replication core.
// Implementations must be safe for concurrent use.
type MetricRecorder interface {
	// RecordReplicationStarted counts one replication activity invocation, and one reset request when isReset is set.
	RecordReplicationStarted(ctx context.Context, isReset bool)

	// RecordReplicationSynced counts the bytes and records synced by a finished attempt.
	RecordReplicationSynced(ctx context.Context, status string, bytesSynced, recordsSynced int64)

	// RecordWorkloadStatusReported counts a status report sent to the workload service.
	RecordWorkloadStatusReported(ctx context.Context, status string, success bool)

	// RecordNotificationSent counts a notification attempt per channel.
	RecordNotificationSent(ctx context.Context, client, trigger string, success bool)

	// RecordJobStatusTransition counts a job status write, labeled by its outcome.
	RecordJobStatusTransition(ctx context.Context, status string, accepted bool)

	// RecordDuration records how long an operation took.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}

// NoOpMetricRecorder discards every measurement.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder { return &NoOpMetricRecorder{} }

func (r *NoOpMetricRecorder) RecordReplicationStarted(context.Context, bool)                {}
func (r *NoOpMetricRecorder) RecordReplicationSynced(context.Context, string, int64, int64) {}
func (r *NoOpMetricRecorder) RecordWorkloadStatusReported(context.Context, string, bool)    {}
func (r *NoOpMetricRecorder) RecordNotificationSent(context.Context, string, string, bool)  {}
func (r *NoOpMetricRecorder) RecordJobStatusTransition(context.Context, string, bool)       {}
func (r *NoOpMetricRecorder) RecordDuration(context.Context, string, time.Duration, map[string]string) {
}
