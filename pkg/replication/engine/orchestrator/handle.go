package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
	"github.com/tigerroll/syncwave/pkg/replication/engine/worker"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

// HandleConfigDir is the directory below a job root the handle writes its inputs to.
const HandleConfigDir = "config"

// Handle runs a ReplicationOrchestrator in-process for one attempt. It is the local
// ReplicationWorker used by the activity coordinator.
type Handle struct {
	runner        port.ReplicationRunner
	store         repository.JobStatusStore
	tracer        metrics.Tracer
	recorder      metrics.MetricRecorder
	workspaceRoot string

	mu        sync.Mutex
	cancel    context.CancelFunc
	cancelled bool
}

var _ port.ReplicationWorker = (*Handle)(nil)

// Run writes the input documents below jobRoot and runs the orchestrator on them,
// at most once per job run key. The key ends SUCCEEDED or FAILED; a key that was
// already launched is rejected without starting the runner again.
// The orchestrator creates the same job root from workspaceRoot and the job run config.
func (h *Handle) Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	const op = "Handle.Run"

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return worker.CancelledOutput(time.Now()), nil
	}
	h.cancel = cancel
	h.mu.Unlock()

	files := NewInputFiles(filepath.Join(jobRoot, HandleConfigDir))
	if err := files.WriteReplicationInputs(input); err != nil {
		return nil, err
	}
	o := NewReplicationOrchestrator(files, h.runner, h.store, NewDirectBackend(), attempt.NewExecution(h.workspaceRoot, h.recorder), h.tracer)

	key := input.JobRunConfig.Key()
	var serialized *string
	launched, err := launchAttempt(runCtx, h.store, key, logger.ForAttempt(key.JobID, key.AttemptID), func(ctx context.Context) error {
		out, err := o.RunJob(ctx)
		if err != nil {
			return err
		}
		if out == nil {
			return exception.New(exception.InternalError, op, "replication returned no output", nil)
		}
		serialized = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !launched {
		return nil, exception.Newf(exception.InternalError, op, "attempt %s was already launched", key)
	}
	return serialization.Deserialize[model.ReplicationOutput](*serialized)
}

// Cancel stops the replication. It is safe to call at any time.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled = true
	if h.cancel != nil {
		h.cancel()
	}
}

// HandleFactory creates a Handle per attempt.
type HandleFactory struct {
	runner        port.ReplicationRunner
	store         repository.JobStatusStore
	tracer        metrics.Tracer
	recorder      metrics.MetricRecorder
	workspaceRoot string
}

// NewHandleFactory creates a HandleFactory.
func NewHandleFactory(cfg *config.Config, runner port.ReplicationRunner, store repository.JobStatusStore, tracer metrics.Tracer, recorder metrics.MetricRecorder) *HandleFactory {
	return &HandleFactory{
		runner:        runner,
		store:         store,
		tracer:        tracer,
		recorder:      recorder,
		workspaceRoot: cfg.Syncwave.Replication.WorkspaceRoot,
	}
}

// NewWorker returns a fresh Handle.
func (f *HandleFactory) NewWorker() port.ReplicationWorker {
	return &Handle{
		runner:        f.runner,
		store:         f.store,
		tracer:        f.tracer,
		recorder:      f.recorder,
		workspaceRoot: f.workspaceRoot,
	}
}
