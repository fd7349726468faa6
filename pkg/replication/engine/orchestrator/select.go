package orchestrator

import (
	"fmt"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

// Dependencies are the collaborators shared by the orchestrator variants.
// Only the runner of the selected kind has to be set.
type Dependencies struct {
	Files         *InputFiles
	Store         repository.JobStatusStore
	Backend       WorkerBackend
	Execution     *attempt.Execution
	Tracer        metrics.Tracer
	WorkspaceRoot string
	Replicator    port.ReplicationRunner
	Normalizer    port.NormalizationRunner
	Transformer   port.TransformationRunner
}

// ForKind returns the orchestrator for a job kind. An unknown kind, or one whose
// runner is missing, is a ConfigError.
func ForKind(kind string, deps Dependencies) (JobOrchestrator, error) {
	const op = "orchestrator.ForKind"

	switch kind {
	case KindReplication, "":
		if deps.Replicator == nil {
			return nil, exception.NewConfigError(op, "replication requires a replication runner", nil)
		}
		backend := deps.Backend
		if backend == nil {
			backend = NewDirectBackend()
		}
		execution := deps.Execution
		if execution == nil {
			execution = attempt.NewExecution(deps.WorkspaceRoot, nil)
		}
		return NewReplicationOrchestrator(deps.Files, deps.Replicator, deps.Store, backend, execution, deps.Tracer), nil
	case KindNormalization:
		if deps.Normalizer == nil {
			return nil, exception.NewConfigError(op, "normalization requires a normalization runner", nil)
		}
		return NewNormalizationOrchestrator(deps.Files, deps.Normalizer, deps.Store, deps.WorkspaceRoot), nil
	case KindDbt:
		if deps.Transformer == nil {
			return nil, exception.NewConfigError(op, "dbt requires a transformation runner", nil)
		}
		return NewCustomTransformOrchestrator(deps.Files, deps.Transformer, deps.Store, deps.WorkspaceRoot), nil
	default:
		return nil, exception.NewConfigError(op, fmt.Sprintf("unknown job kind %q", kind), nil)
	}
}
