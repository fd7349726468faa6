// Package port declares the narrow interfaces through which the replication core
// reaches external collaborators: the workflow engine, the workload service, the
// configuration API, secret storage, schema validation and notification delivery.
package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

// SecretsHydrator replaces secret references in a connector configuration with their values.
type SecretsHydrator interface {
	Hydrate(ctx context.Context, workspaceID uuid.UUID, config map[string]interface{}) (map[string]interface{}, error)
}

// ReplicationInputSchema names the schema a hydrated model.ReplicationInput must satisfy.
const ReplicationInputSchema = "replication_input"

// InputValidator checks a document against a named schema.
// A mismatch is reported as a ValidationError; an unknown schema as a ConfigError.
type InputValidator interface {
	Validate(ctx context.Context, schemaName string, document interface{}) error
}

// DefinitionVersionOverrideProvider supplies optional replacements for a resolved default version.
// actorID is nil for workspace-level lookups. A nil version means no override applies.
type DefinitionVersionOverrideProvider interface {
	GetOverride(
		ctx context.Context,
		actorType model.ActorType,
		definitionID uuid.UUID,
		workspaceID uuid.UUID,
		actorID *uuid.UUID,
		defaultVersion model.ActorDefinitionVersion,
	) (*model.ActorDefinitionVersion, error)
}

// Heartbeater signals liveness to the workflow engine.
// Heartbeat returns an error of kind CancelledError once the engine has requested
// cancellation of the running activity.
type Heartbeater interface {
	Heartbeat(ctx context.Context, details ...interface{}) error
}

// WorkloadCreateRequest describes a workload to hand over to the workload service.
type WorkloadCreateRequest struct {
	WorkloadID   string             `json:"workloadId"`
	Type         model.WorkloadType `json:"type"`
	Labels       map[string]string  `json:"labels,omitempty"`
	InputPayload string             `json:"workloadInput"`
	LogPath      string             `json:"logPath,omitempty"`
}

// WorkloadAPI is the remote workload-tracking service.
type WorkloadAPI interface {
	Create(ctx context.Context, req WorkloadCreateRequest) error
	GetStatus(ctx context.Context, workloadID string) (model.WorkloadStatus, error)
	ReportStatus(ctx context.Context, workloadID string, status model.WorkloadStatus, reason string) error
	Cancel(ctx context.Context, workloadID, reason string) error
}

// WorkloadOutputReader fetches the ReplicationOutput a remote workload wrote.
type WorkloadOutputReader interface {
	ReadOutput(ctx context.Context, workloadID string) (*model.ReplicationOutput, error)
}

// WorkloadOutputWriter publishes the ReplicationOutput of a workload for its coordinator.
type WorkloadOutputWriter interface {
	WriteOutput(ctx context.Context, workloadID string, output *model.ReplicationOutput) error
}

// DiscoverSchemaRequest asks the source API to rediscover a source's schema.
type DiscoverSchemaRequest struct {
	SourceID           uuid.UUID
	ConnectionID       uuid.UUID
	DisableCache       bool
	NotifySchemaChange bool
}

// SourceAPI is the schema-discovery service.
type SourceAPI interface {
	DiscoverSchema(ctx context.Context, req DiscoverSchemaRequest) (*model.CatalogDiff, error)
	// MostRecentCatalogFetch returns nil when the source has never been discovered.
	MostRecentCatalogFetch(ctx context.Context, sourceID uuid.UUID) (*time.Time, error)
}

// ConnectionAPI returns the inline sync configuration of a connection attempt.
type ConnectionAPI interface {
	GetSyncInput(ctx context.Context, connectionID uuid.UUID, run model.JobRunConfig) (*model.StandardSyncInput, error)
}

// ReplicationRunner executes one replication in-process.
// Cancelling ctx must stop the replication.
type ReplicationRunner interface {
	Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error)
}

// NormalizationRunner runs basic normalization in a destination.
type NormalizationRunner interface {
	Normalize(ctx context.Context, input *model.NormalizationInput, jobRoot string) (*model.NormalizationSummary, error)
}

// TransformationRunner runs a custom dbt transformation in a destination.
type TransformationRunner interface {
	Transform(ctx context.Context, input *model.OperatorDbtInput, jobRoot string) error
}

// SchemaChangeEvent describes schema changes propagated to a connection.
type SchemaChangeEvent struct {
	WorkspaceID    uuid.UUID
	ConnectionID   uuid.UUID
	ConnectionName string
	SourceName     string
	ConnectionURL  string
	Diff           *model.CatalogDiff
}

// Notifier delivers schema-change notifications through one channel.
type Notifier interface {
	Name() string
	NotifySchemaPropagated(ctx context.Context, event SchemaChangeEvent) error
}
