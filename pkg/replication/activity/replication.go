// Package activity implements the workflow-engine activities of a sync: the
// replication coordinator and the schema refresh that may precede it.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/catalog"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
	"github.com/tigerroll/syncwave/pkg/replication/core/heartbeat"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
	"github.com/tigerroll/syncwave/pkg/replication/engine/worker"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

// DefaultMaxOutputSizeBytes is the largest sync output the workflow engine accepts comfortably.
const DefaultMaxOutputSizeBytes = 2 * 1024 * 1024

// LocalWorkerFactory creates the in-process worker of an attempt.
type LocalWorkerFactory interface {
	NewWorker() port.ReplicationWorker
}

// ReplicationActivity coordinates one replication attempt for the workflow engine.
type ReplicationActivity struct {
	secrets     port.SecretsHydrator
	validator   port.InputValidator
	connections port.ConnectionAPI
	flags       featureflag.Client
	local       LocalWorkerFactory
	workloads   port.WorkloadAPI
	outputs     port.WorkloadOutputReader
	execution   *attempt.Execution
	recorder    metrics.MetricRecorder
	tracer      metrics.Tracer

	heartbeatInterval time.Duration
	pollInterval      time.Duration
	maxOutputSize     int
	maskedKeys        []string
}

// Options tunes a ReplicationActivity. Zero values select the defaults.
type Options struct {
	HeartbeatInterval  time.Duration
	PollInterval       time.Duration
	MaxOutputSizeBytes int
	// MaskedConfigKeys are the connector configuration keys hidden when inputs are logged.
	MaskedConfigKeys []string
}

// OptionsFromConfig reads the replication and workload_api sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		HeartbeatInterval:  time.Duration(cfg.Syncwave.Replication.HeartbeatIntervalSeconds) * time.Second,
		PollInterval:       time.Duration(cfg.Syncwave.WorkloadAPI.PollIntervalSeconds) * time.Second,
		MaxOutputSizeBytes: cfg.Syncwave.Replication.MaxOutputSizeBytes,
		MaskedConfigKeys:   cfg.Syncwave.Security.MaskedConfigKeys,
	}
}

// Collaborators groups the services a ReplicationActivity talks to. Connections,
// Workloads and Outputs are optional; the paths that need them are then unavailable.
type Collaborators struct {
	Secrets     port.SecretsHydrator
	Validator   port.InputValidator
	Connections port.ConnectionAPI
	Flags       featureflag.Client
	Local       LocalWorkerFactory
	Workloads   port.WorkloadAPI
	Outputs     port.WorkloadOutputReader
	Execution   *attempt.Execution
	Recorder    metrics.MetricRecorder
	Tracer      metrics.Tracer
}

// NewReplicationActivity creates a ReplicationActivity.
func NewReplicationActivity(c Collaborators, opts Options) *ReplicationActivity {
	if c.Recorder == nil {
		c.Recorder = metrics.NewNoOpMetricRecorder()
	}
	if c.Tracer == nil {
		c.Tracer = metrics.NewNoOpTracer()
	}
	if opts.MaxOutputSizeBytes <= 0 {
		opts.MaxOutputSizeBytes = DefaultMaxOutputSizeBytes
	}
	return &ReplicationActivity{
		secrets:           c.Secrets,
		validator:         c.Validator,
		connections:       c.Connections,
		flags:             c.Flags,
		local:             c.Local,
		workloads:         c.Workloads,
		outputs:           c.Outputs,
		execution:         c.Execution,
		recorder:          c.Recorder,
		tracer:            c.Tracer,
		heartbeatInterval: opts.HeartbeatInterval,
		pollInterval:      opts.PollInterval,
		maxOutputSize:     opts.MaxOutputSizeBytes,
		maskedKeys:        opts.MaskedConfigKeys,
	}
}

// Replicate hydrates and validates the input, then runs the attempt under a
// heartbeat. A cancellation requested by the workflow engine ends in a
// CancelledError; an invalid input ends in a ValidationError before anything runs.
func (a *ReplicationActivity) Replicate(ctx context.Context, hb port.Heartbeater, input *model.ReplicationActivityInput) (*model.StandardSyncOutput, error) {
	const op = "ReplicationActivity.Replicate"

	ctx, end := a.tracer.StartSpan(ctx, "activity.replicate")
	defer end()

	a.recorder.RecordReplicationStarted(ctx, input.IsReset)
	a.tracer.AddTags(ctx, map[string]string{
		metrics.TagAttemptNumber:          strconv.Itoa(input.JobRunConfig.AttemptID),
		metrics.TagConnectionID:           input.ConnectionID.String(),
		metrics.TagJobID:                  input.JobRunConfig.JobID,
		metrics.TagSourceDockerImage:      input.SourceLauncherConfig.DockerImage,
		metrics.TagDestinationDockerImage: input.DestinationLauncherConfig.DockerImage,
	})

	replicationInput, err := a.hydrate(ctx, input)
	if err != nil {
		a.tracer.RecordError(ctx, err)
		return nil, err
	}

	slot := heartbeat.NewCancellationSlot()
	supervisor := heartbeat.NewSupervisor(a.heartbeatInterval, hb)
	output, err := heartbeat.Run(ctx, supervisor, slot, func(ctx context.Context) (*model.StandardSyncOutput, error) {
		w := a.newWorker(input)
		slot.Register(w.Cancel)

		attemptOutput, err := a.execution.Run(ctx, w, replicationInput)
		if err != nil {
			return nil, err
		}
		syncOutput := ReduceReplicationOutput(attemptOutput)
		a.traceSummary(ctx, attemptOutput.ReplicationAttemptSummary)

		if input.SchemaRefreshOutput != nil {
			streams := catalog.StreamsToBackfill(input.SchemaRefreshOutput.AppliedDiff, replicationInput.Catalog)
			catalog.MarkBackfilledStreams(streams, syncOutput)
			logger.Infof("%s: %d stream(s) marked as backfilled.", op, len(streams))
		}
		a.checkOutputSize(syncOutput)
		return syncOutput, nil
	})
	if err != nil {
		a.tracer.RecordError(ctx, err)
		return nil, err
	}
	logger.Infof("%s: sync of connection %s finished with status %s.", op, input.ConnectionID, output.StandardSyncSummary.Status)
	return output, nil
}

// hydrate builds the ReplicationInput with secrets resolved and checks it against
// the input schema. A reset input gets its catalog rewritten for the streams to reset.
func (a *ReplicationActivity) hydrate(ctx context.Context, input *model.ReplicationActivityInput) (*model.ReplicationInput, error) {
	const op = "ReplicationActivity.hydrate"

	syncInput := input.SyncInput
	if a.flags.BoolVariation(featureflag.RemoveLargeSyncInputs, featureflag.Workspace(input.WorkspaceID)) {
		if a.connections == nil {
			return nil, exception.NewConfigError(op, "fetching sync inputs requires a connection API client", nil)
		}
		fetched, err := a.connections.GetSyncInput(ctx, input.ConnectionID, input.JobRunConfig)
		if err != nil {
			return nil, err
		}
		syncInput = fetched
	}
	if syncInput == nil {
		return nil, exception.NewConfigError(op, fmt.Sprintf("no sync input for connection %s", input.ConnectionID), nil)
	}

	sourceConfig, err := a.secrets.Hydrate(ctx, syncInput.WorkspaceID, syncInput.SourceConfiguration)
	if err != nil {
		return nil, err
	}
	destinationConfig, err := a.secrets.Hydrate(ctx, syncInput.WorkspaceID, syncInput.DestinationConfiguration)
	if err != nil {
		return nil, err
	}

	replicationInput := &model.ReplicationInput{
		NamespaceDefinition:       syncInput.NamespaceDefinition,
		NamespaceFormat:           syncInput.NamespaceFormat,
		Prefix:                    syncInput.Prefix,
		SourceID:                  syncInput.SourceID,
		DestinationID:             syncInput.DestinationID,
		SourceConfiguration:       sourceConfig,
		DestinationConfiguration:  destinationConfig,
		Catalog:                   syncInput.Catalog,
		State:                     syncInput.State,
		SyncResourceRequirements:  syncInput.SyncResourceRequirements,
		WorkspaceID:               syncInput.WorkspaceID,
		ConnectionID:              syncInput.ConnectionID,
		IsReset:                   syncInput.IsReset,
		JobRunConfig:              input.JobRunConfig,
		SourceLauncherConfig:      input.SourceLauncherConfig,
		DestinationLauncherConfig: input.DestinationLauncherConfig,
	}

	if syncInput.IsReset && len(syncInput.StreamsToReset) > 0 {
		replicationInput.Catalog = syncInput.Catalog.Clone()
		catalog.UpdateCatalogForReset(catalog.NewStreamSet(syncInput.StreamsToReset...), replicationInput.Catalog)
		logger.Infof("%s: catalog rewritten to reset %d stream(s).", op, len(syncInput.StreamsToReset))
	}

	logger.Debugf("%s: hydrated connection %s, source config %v, destination config %v.", op, syncInput.ConnectionID,
		serialization.MaskSecrets(sourceConfig, a.maskedKeys), serialization.MaskSecrets(destinationConfig, a.maskedKeys))

	if err := a.validator.Validate(ctx, port.ReplicationInputSchema, replicationInput); err != nil {
		if errors.Is(err, exception.ErrValidation) || errors.Is(err, exception.ErrConfig) {
			return nil, err
		}
		return nil, exception.NewValidationError(op, "hydrated replication input is invalid", err)
	}
	return replicationInput, nil
}

// newWorker picks the remote workload backend when it is enabled for the
// connection and a workload client is available, the in-process one otherwise.
func (a *ReplicationActivity) newWorker(input *model.ReplicationActivityInput) port.ReplicationWorker {
	scope := featureflag.Multi{featureflag.Workspace(input.WorkspaceID), featureflag.Connection(input.ConnectionID)}
	if a.flags.BoolVariation(featureflag.UseWorkloadAPI, scope) {
		if a.workloads != nil && a.outputs != nil {
			payload := *input
			payload.SyncInput = nil
			return worker.NewWorkloadWorker(a.workloads, a.outputs, &payload, a.pollInterval)
		}
		logger.Warnf("ReplicationActivity: workload API enabled for connection %s but no client is configured; running locally.", input.ConnectionID)
	}
	return a.local.NewWorker()
}

func (a *ReplicationActivity) traceSummary(ctx context.Context, summary model.ReplicationAttemptSummary) {
	a.recorder.RecordReplicationSynced(ctx, string(summary.Status), summary.BytesSynced, summary.RecordsSynced)
	a.tracer.AddTags(ctx, map[string]string{
		metrics.TagReplicationStatus:  string(summary.Status),
		metrics.TagReplicationBytes:   strconv.FormatInt(summary.BytesSynced, 10),
		metrics.TagReplicationRecords: strconv.FormatInt(summary.RecordsSynced, 10),
	})
}

// checkOutputSize only logs; an oversized output is still returned unchanged.
func (a *ReplicationActivity) checkOutputSize(output *model.StandardSyncOutput) {
	size, err := serialization.SerializedSize(output)
	if err != nil {
		logger.Warnf("ReplicationActivity: failed to measure sync output: %v", err)
		return
	}
	if size > a.maxOutputSize {
		logger.Errorf("ReplicationActivity: sync output exceeds the max message size of %d bytes, actual is %d.", a.maxOutputSize, size)
		return
	}
	logger.Infof("ReplicationActivity: sync summary length: %d.", size)
}
