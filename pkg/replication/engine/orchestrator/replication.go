package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
	"github.com/tigerroll/syncwave/pkg/replication/engine/worker"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

// ReplicationOrchestrator runs a replication worker for the input found in the config directory.
type ReplicationOrchestrator struct {
	files     *InputFiles
	runner    port.ReplicationRunner
	store     repository.JobStatusStore
	backend   WorkerBackend
	execution *attempt.Execution
	tracer    metrics.Tracer
}

var _ JobOrchestrator = (*ReplicationOrchestrator)(nil)

// NewReplicationOrchestrator creates a ReplicationOrchestrator.
func NewReplicationOrchestrator(
	files *InputFiles,
	runner port.ReplicationRunner,
	store repository.JobStatusStore,
	backend WorkerBackend,
	execution *attempt.Execution,
	tracer metrics.Tracer,
) *ReplicationOrchestrator {
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &ReplicationOrchestrator{
		files:     files,
		runner:    runner,
		store:     store,
		backend:   backend,
		execution: execution,
		tracer:    tracer,
	}
}

func (o *ReplicationOrchestrator) Name() string { return "Replication" }

func (o *ReplicationOrchestrator) InputType() string {
	return fmt.Sprintf("%T", model.ReplicationInput{})
}

// RunJob reads the replication input, marks the job RUNNING as soon as the worker
// exists, runs it through the configured backend and returns the serialized output.
func (o *ReplicationOrchestrator) RunJob(ctx context.Context) (*string, error) {
	const op = "ReplicationOrchestrator.RunJob"

	ctx, end := o.tracer.StartSpan(ctx, "job_orchestrator.replication")
	defer end()

	input, err := ReadInput[model.ReplicationInput](o.files)
	if err != nil {
		return nil, err
	}
	run, err := o.files.JobRunConfig()
	if err != nil {
		return nil, err
	}
	source, destination, err := o.files.LauncherConfigs()
	if err != nil {
		return nil, err
	}
	input.JobRunConfig = *run
	input.SourceLauncherConfig = *source
	input.DestinationLauncherConfig = *destination
	logger.Infof("%s: source image %s, destination image %s.", op, source.DockerImage, destination.DockerImage)

	o.tracer.AddTags(ctx, map[string]string{
		metrics.TagJobID:                  run.JobID,
		metrics.TagAttemptNumber:          strconv.Itoa(run.AttemptID),
		metrics.TagConnectionID:           input.ConnectionID.String(),
		metrics.TagSourceDockerImage:      source.DockerImage,
		metrics.TagDestinationDockerImage: destination.DockerImage,
	})

	w := worker.NewDirectWorker(o.runner)
	if err := markRunning(ctx, o.store, *run); err != nil {
		o.tracer.RecordError(ctx, err)
		return nil, err
	}

	logger.Infof("%s: running replication worker on the %s backend.", op, o.backend.Name())
	output, err := o.execution.Run(ctx, &backendWorker{backend: o.backend, worker: w}, input)
	if err != nil {
		o.tracer.RecordError(ctx, err)
		return nil, err
	}
	o.tracer.AddTags(ctx, map[string]string{metrics.TagReplicationStatus: string(output.ReplicationAttemptSummary.Status)})

	serialized, err := serialization.Serialize(output)
	if err != nil {
		return nil, err
	}
	logger.Infof("%s: returning output.", op)
	return &serialized, nil
}

// backendWorker lets an attempt.Execution drive a worker through a backend.
type backendWorker struct {
	backend WorkerBackend
	worker  port.ReplicationWorker
}

func (b *backendWorker) Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	return b.backend.Run(ctx, b.worker, input, jobRoot)
}

func (b *backendWorker) Cancel() { b.worker.Cancel() }
