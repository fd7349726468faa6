// Package orchestrator runs one job inside the orchestrator container: it reads the
// job's input documents, executes the job kind it was started for and reports the
// job's lifecycle to the JobStatusStore.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// Job kinds an orchestrator can be started for.
const (
	KindReplication   = "replication"
	KindNormalization = "normalization"
	KindDbt           = "dbt"
)

// JobOrchestrator runs the job a container was launched for.
type JobOrchestrator interface {
	// Name is used in diagnostics.
	Name() string
	// InputType describes the document expected in input.json.
	InputType() string
	// RunJob executes the job. The result, when not nil, is the serialized job output.
	RunJob(ctx context.Context) (*string, error)
}

// markRunning moves the job to RUNNING. A rejected transition only means the key
// already moved on, so it is logged instead of failing the job.
func markRunning(ctx context.Context, store repository.JobStatusStore, run model.JobRunConfig) error {
	err := repository.NewStatusTracker(store, run.Key()).MarkRunning(ctx)
	if errors.Is(err, model.ErrInvalidStatusTransition) {
		logger.Warnf("Orchestrator: job %s was not marked RUNNING: %v", run.Key(), err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark job %s running: %w", run.Key(), err)
	}
	return nil
}
