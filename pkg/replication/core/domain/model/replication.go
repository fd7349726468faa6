package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// JobRunConfig identifies the job attempt a replication belongs to.
type JobRunConfig struct {
	JobID     string `json:"jobId"`
	AttemptID int    `json:"attemptId"`
}

// Key returns the JobRunKey of the run.
func (c JobRunConfig) Key() JobRunKey {
	return NewJobRunKey(c.JobID, c.AttemptID)
}

// IntegrationLauncherConfig describes how to launch one connector container.
type IntegrationLauncherConfig struct {
	JobID             string    `json:"jobId"`
	AttemptID         int       `json:"attemptId"`
	ConnectionID      uuid.UUID `json:"connectionId"`
	WorkspaceID       uuid.UUID `json:"workspaceId"`
	DockerImage       string    `json:"dockerImage"`
	ProtocolVersion   string    `json:"protocolVersion,omitempty"`
	IsCustomConnector bool      `json:"isCustomConnector,omitempty"`
}

// ResourceRequirements are container resource requests and limits.
type ResourceRequirements struct {
	CPURequest    string `json:"cpuRequest,omitempty"`
	CPULimit      string `json:"cpuLimit,omitempty"`
	MemoryRequest string `json:"memoryRequest,omitempty"`
	MemoryLimit   string `json:"memoryLimit,omitempty"`
}

// SyncResourceRequirements groups the resources of each container of a sync.
type SyncResourceRequirements struct {
	Orchestrator *ResourceRequirements `json:"orchestrator,omitempty"`
	Source       *ResourceRequirements `json:"source,omitempty"`
	Destination  *ResourceRequirements `json:"destination,omitempty"`
}

// State is an opaque connector state blob.
type State struct {
	State json.RawMessage `json:"state,omitempty"`
}

// ReplicationInput is the fully materialized configuration of one replication.
// Connection configurations carry hydrated secrets; it must never be logged verbatim.
type ReplicationInput struct {
	NamespaceDefinition       string                    `json:"namespaceDefinition,omitempty"`
	NamespaceFormat           string                    `json:"namespaceFormat,omitempty"`
	Prefix                    string                    `json:"prefix,omitempty"`
	SourceID                  uuid.UUID                 `json:"sourceId"`
	DestinationID             uuid.UUID                 `json:"destinationId"`
	SourceConfiguration       map[string]interface{}    `json:"sourceConfiguration"`
	DestinationConfiguration  map[string]interface{}    `json:"destinationConfiguration"`
	Catalog                   *ConfiguredCatalog        `json:"catalog"`
	State                     *State                    `json:"state,omitempty"`
	SyncResourceRequirements  *SyncResourceRequirements `json:"syncResourceRequirements,omitempty"`
	WorkspaceID               uuid.UUID                 `json:"workspaceId"`
	ConnectionID              uuid.UUID                 `json:"connectionId"`
	IsReset                   bool                      `json:"isReset"`
	JobRunConfig              JobRunConfig              `json:"jobRunConfig"`
	SourceLauncherConfig      IntegrationLauncherConfig `json:"sourceLauncherConfig"`
	DestinationLauncherConfig IntegrationLauncherConfig `json:"destinationLauncherConfig"`
}

// StandardSyncInput is the full sync configuration handed over by callers that
// still send everything inline. Configurations are not yet hydrated.
type StandardSyncInput struct {
	NamespaceDefinition      string                    `json:"namespaceDefinition,omitempty"`
	NamespaceFormat          string                    `json:"namespaceFormat,omitempty"`
	Prefix                   string                    `json:"prefix,omitempty"`
	SourceID                 uuid.UUID                 `json:"sourceId"`
	DestinationID            uuid.UUID                 `json:"destinationId"`
	SourceConfiguration      map[string]interface{}    `json:"sourceConfiguration"`
	DestinationConfiguration map[string]interface{}    `json:"destinationConfiguration"`
	Catalog                  *ConfiguredCatalog        `json:"catalog"`
	State                    *State                    `json:"state,omitempty"`
	SyncResourceRequirements *SyncResourceRequirements `json:"syncResourceRequirements,omitempty"`
	WorkspaceID              uuid.UUID                 `json:"workspaceId"`
	ConnectionID             uuid.UUID                 `json:"connectionId"`
	IsReset                  bool                      `json:"isReset"`
	// StreamsToReset names the streams a reset clears. It is only read when IsReset is set.
	StreamsToReset []StreamDescriptor `json:"streamsToReset,omitempty"`
}

// RefreshSchemaOutput is the result of a schema refresh that ran before the sync.
type RefreshSchemaOutput struct {
	AppliedDiff *CatalogDiff `json:"appliedDiff,omitempty"`
}

// ReplicationActivityInput is what the workflow engine passes to the replication activity.
// The lite form carries only identifiers; SyncInput is set by callers using the inline form.
type ReplicationActivityInput struct {
	SourceID                  uuid.UUID                 `json:"sourceId"`
	DestinationID             uuid.UUID                 `json:"destinationId"`
	WorkspaceID               uuid.UUID                 `json:"workspaceId"`
	ConnectionID              uuid.UUID                 `json:"connectionId"`
	JobRunConfig              JobRunConfig              `json:"jobRunConfig"`
	SourceLauncherConfig      IntegrationLauncherConfig `json:"sourceLauncherConfig"`
	DestinationLauncherConfig IntegrationLauncherConfig `json:"destinationLauncherConfig"`
	SyncResourceRequirements  *SyncResourceRequirements `json:"syncResourceRequirements,omitempty"`
	NamespaceDefinition       string                    `json:"namespaceDefinition,omitempty"`
	NamespaceFormat           string                    `json:"namespaceFormat,omitempty"`
	Prefix                    string                    `json:"prefix,omitempty"`
	IsReset                   bool                      `json:"isReset"`
	TaskQueue                 string                    `json:"taskQueue,omitempty"`
	SchemaRefreshOutput       *RefreshSchemaOutput      `json:"schemaRefreshOutput,omitempty"`
	SyncInput                 *StandardSyncInput        `json:"syncInput,omitempty"`
}

// ReplicationStatus is the terminal status of a replication attempt.
type ReplicationStatus string

const (
	ReplicationStatusCompleted ReplicationStatus = "completed"
	ReplicationStatusFailed    ReplicationStatus = "failed"
	ReplicationStatusCancelled ReplicationStatus = "cancelled"
)

// SyncStats are record and byte counters.
type SyncStats struct {
	RecordsEmitted   int64 `json:"recordsEmitted"`
	BytesEmitted     int64 `json:"bytesEmitted"`
	RecordsCommitted int64 `json:"recordsCommitted"`
	BytesCommitted   int64 `json:"bytesCommitted"`
	StateMessages    int64 `json:"stateMessagesEmitted,omitempty"`
}

// StreamSyncStats are the counters of one stream.
type StreamSyncStats struct {
	StreamName      string    `json:"streamName"`
	StreamNamespace string    `json:"streamNamespace,omitempty"`
	Stats           SyncStats `json:"stats"`
	WasBackfilled   bool      `json:"wasBackfilled,omitempty"`
}

// Descriptor returns the identity of the stream the stats belong to.
func (s StreamSyncStats) Descriptor() StreamDescriptor {
	return StreamDescriptor{Name: s.StreamName, Namespace: s.StreamNamespace}
}

// FailureReason describes one failure observed during an attempt.
type FailureReason struct {
	FailureOrigin   string `json:"failureOrigin,omitempty"`
	FailureType     string `json:"failureType,omitempty"`
	ExternalMessage string `json:"externalMessage,omitempty"`
	InternalMessage string `json:"internalMessage,omitempty"`
	StackTrace      string `json:"stacktrace,omitempty"`
	Timestamp       int64  `json:"timestamp"`
	Retryable       *bool  `json:"retryable,omitempty"`
}

// ReplicationAttemptSummary is the summary a worker reports for an attempt.
type ReplicationAttemptSummary struct {
	Status             ReplicationStatus      `json:"status"`
	RecordsSynced      int64                  `json:"recordsSynced"`
	BytesSynced        int64                  `json:"bytesSynced"`
	StartTime          int64                  `json:"startTime"`
	EndTime            int64                  `json:"endTime"`
	TotalStats         *SyncStats             `json:"totalStats,omitempty"`
	StreamStats        []StreamSyncStats      `json:"streamStats,omitempty"`
	PerformanceMetrics map[string]interface{} `json:"performanceMetrics,omitempty"`
}

// ReplicationOutput is produced once per attempt and not modified afterwards.
type ReplicationOutput struct {
	ReplicationAttemptSummary ReplicationAttemptSummary `json:"replicationAttemptSummary"`
	State                     *State                    `json:"state,omitempty"`
	OutputCatalog             *ConfiguredCatalog        `json:"outputCatalog,omitempty"`
	Failures                  []FailureReason           `json:"failures,omitempty"`
}

// StandardSyncSummary is the externally visible summary of a sync.
type StandardSyncSummary struct {
	Status             ReplicationStatus      `json:"status"`
	RecordsSynced      int64                  `json:"recordsSynced"`
	BytesSynced        int64                  `json:"bytesSynced"`
	StartTime          int64                  `json:"startTime"`
	EndTime            int64                  `json:"endTime"`
	TotalStats         *SyncStats             `json:"totalStats,omitempty"`
	StreamStats        []StreamSyncStats      `json:"streamStats,omitempty"`
	PerformanceMetrics map[string]interface{} `json:"performanceMetrics,omitempty"`
}

// StandardSyncOutput is what the replication activity returns to the workflow engine.
type StandardSyncOutput struct {
	StandardSyncSummary StandardSyncSummary `json:"standardSyncSummary"`
	State               *State              `json:"state,omitempty"`
	OutputCatalog       *ConfiguredCatalog  `json:"outputCatalog,omitempty"`
	Failures            []FailureReason     `json:"failures,omitempty"`
}

// NormalizationInput configures a normalization run.
type NormalizationInput struct {
	DestinationConfiguration map[string]interface{} `json:"destinationConfiguration"`
	Catalog                  *ConfiguredCatalog     `json:"catalog"`
	ResourceRequirements     *ResourceRequirements  `json:"resourceRequirements,omitempty"`
	WorkspaceID              uuid.UUID              `json:"workspaceId"`
	ConnectionID             uuid.UUID              `json:"connectionId"`
}

// NormalizationSummary reports a normalization run.
type NormalizationSummary struct {
	StartTime int64           `json:"startTime"`
	EndTime   int64           `json:"endTime"`
	Failures  []FailureReason `json:"failures,omitempty"`
}

// OperatorDbtInput configures a custom dbt transformation.
type OperatorDbtInput struct {
	DestinationConfiguration map[string]interface{} `json:"destinationConfiguration"`
	GitRepoURL               string                 `json:"gitRepoUrl"`
	GitRepoBranch            string                 `json:"gitRepoBranch,omitempty"`
	DockerImage              string                 `json:"dockerImage"`
	DbtArguments             string                 `json:"dbtArguments"`
	WorkspaceID              uuid.UUID              `json:"workspaceId"`
	ConnectionID             uuid.UUID              `json:"connectionId"`
}
