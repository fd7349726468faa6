package orchestrator

import (
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
)

// WorkerBackendParams defines the dependencies used to select a WorkerBackend.
// The workload client is only present when the workload module is installed.
type WorkerBackendParams struct {
	fx.In
	Config   *config.Config
	API      port.WorkloadAPI          `optional:"true"`
	Outputs  port.WorkloadOutputWriter `optional:"true"`
	Recorder metrics.MetricRecorder
}

func provideWorkerBackend(p WorkerBackendParams) (WorkerBackend, error) {
	return NewWorkerBackend(p.Config, p.API, p.Outputs, p.Recorder)
}

// JobOrchestratorParams defines the dependencies of the orchestrator variants.
type JobOrchestratorParams struct {
	fx.In
	Config      *config.Config
	Files       *InputFiles
	Store       repository.JobStatusStore
	Backend     WorkerBackend
	Execution   *attempt.Execution
	Tracer      metrics.Tracer
	Replicator  port.ReplicationRunner    `optional:"true"`
	Normalizer  port.NormalizationRunner  `optional:"true"`
	Transformer port.TransformationRunner `optional:"true"`
}

// provideJobOrchestrator selects the variant named by replication.job_kind.
func provideJobOrchestrator(p JobOrchestratorParams) (JobOrchestrator, error) {
	return ForKind(p.Config.Syncwave.Replication.JobKind, Dependencies{
		Files:         p.Files,
		Store:         p.Store,
		Backend:       p.Backend,
		Execution:     p.Execution,
		Tracer:        p.Tracer,
		WorkspaceRoot: p.Config.Syncwave.Replication.WorkspaceRoot,
		Replicator:    p.Replicator,
		Normalizer:    p.Normalizer,
		Transformer:   p.Transformer,
	})
}

// Module provides the orchestrator App and the in-process HandleFactory.
var Module = fx.Options(
	fx.Provide(
		NewInputFilesFromConfig,
		attempt.NewExecutionFromConfig,
		provideWorkerBackend,
		provideJobOrchestrator,
		NewApp,
		NewHandleFactory,
	),
)
