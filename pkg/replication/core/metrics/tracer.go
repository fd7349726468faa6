package metrics

import "context"

// Trace tag names attached to replication spans.
const (
	TagAttemptNumber          = "attempt_number"
	TagConnectionID           = "connection_id"
	TagJobID                  = "job_id"
	TagSourceDockerImage      = "source.docker_image"
	TagDestinationDockerImage = "destination.docker_image"
	TagReplicationStatus      = "replication.status"
	TagReplicationBytes       = "replication.bytes_synced"
	TagReplicationRecords     = "replication.records_synced"
)

// Tracer integrates the replication core with a distributed tracing system.
type Tracer interface {
	// StartSpan starts a span named name and returns the context carrying it
	// together with the function that ends it.
	StartSpan(ctx context.Context, name string) (context.Context, func())

	// AddTags attaches tags to the span active in ctx. It is a no-op without one.
	AddTags(ctx context.Context, tags map[string]string)

	// RecordError marks the span active in ctx as failed.
	RecordError(ctx context.Context, err error)
}

// NoOpTracer does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a NoOpTracer.
func NewNoOpTracer() Tracer { return &NoOpTracer{} }

func (t *NoOpTracer) StartSpan(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}
func (t *NoOpTracer) AddTags(context.Context, map[string]string) {}
func (t *NoOpTracer) RecordError(context.Context, error)         {}
