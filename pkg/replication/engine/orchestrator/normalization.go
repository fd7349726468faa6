package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

// NormalizationOrchestrator runs basic normalization and returns its summary.
type NormalizationOrchestrator struct {
	files         *InputFiles
	runner        port.NormalizationRunner
	store         repository.JobStatusStore
	workspaceRoot string
}

var _ JobOrchestrator = (*NormalizationOrchestrator)(nil)

func NewNormalizationOrchestrator(files *InputFiles, runner port.NormalizationRunner, store repository.JobStatusStore, workspaceRoot string) *NormalizationOrchestrator {
	return &NormalizationOrchestrator{files: files, runner: runner, store: store, workspaceRoot: workspaceRoot}
}

func (o *NormalizationOrchestrator) Name() string { return "Normalization" }

func (o *NormalizationOrchestrator) InputType() string {
	return fmt.Sprintf("%T", model.NormalizationInput{})
}

func (o *NormalizationOrchestrator) RunJob(ctx context.Context) (*string, error) {
	const op = "NormalizationOrchestrator.RunJob"

	input, err := ReadInput[model.NormalizationInput](o.files)
	if err != nil {
		return nil, err
	}
	run, err := o.files.JobRunConfig()
	if err != nil {
		return nil, err
	}
	jobRoot, err := prepareJobRoot(o.workspaceRoot, *run)
	if err != nil {
		return nil, err
	}
	if err := markRunning(ctx, o.store, *run); err != nil {
		return nil, err
	}

	logger.Infof("%s: running normalization for job %s.", op, run.Key())
	summary, err := o.runner.Normalize(ctx, input, jobRoot)
	if err != nil {
		return nil, exception.NewWorkerExecutionError(op, "normalization failed", err)
	}
	serialized, err := serialization.Serialize(summary)
	if err != nil {
		return nil, err
	}
	return &serialized, nil
}

func prepareJobRoot(workspaceRoot string, run model.JobRunConfig) (string, error) {
	jobRoot := attempt.JobRoot(workspaceRoot, run.JobID, run.AttemptID)
	if err := os.MkdirAll(jobRoot, 0o755); err != nil {
		return "", exception.NewConfigError("orchestrator", fmt.Sprintf("failed to create job root %s", jobRoot), err)
	}
	return jobRoot, nil
}
