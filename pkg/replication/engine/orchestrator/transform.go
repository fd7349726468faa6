package orchestrator

import (
	"context"
	"fmt"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// CustomTransformOrchestrator runs a custom dbt transformation. It has no output.
type CustomTransformOrchestrator struct {
	files         *InputFiles
	runner        port.TransformationRunner
	store         repository.JobStatusStore
	workspaceRoot string
}

var _ JobOrchestrator = (*CustomTransformOrchestrator)(nil)

func NewCustomTransformOrchestrator(files *InputFiles, runner port.TransformationRunner, store repository.JobStatusStore, workspaceRoot string) *CustomTransformOrchestrator {
	return &CustomTransformOrchestrator{files: files, runner: runner, store: store, workspaceRoot: workspaceRoot}
}

func (o *CustomTransformOrchestrator) Name() string { return "DBT Transformation" }

func (o *CustomTransformOrchestrator) InputType() string {
	return fmt.Sprintf("%T", model.OperatorDbtInput{})
}

func (o *CustomTransformOrchestrator) RunJob(ctx context.Context) (*string, error) {
	const op = "CustomTransformOrchestrator.RunJob"

	input, err := ReadInput[model.OperatorDbtInput](o.files)
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

	logger.Infof("%s: running dbt transformation from %s for job %s.", op, input.GitRepoURL, run.Key())
	if err := o.runner.Transform(ctx, input, jobRoot); err != nil {
		return nil, exception.NewWorkerExecutionError(op, "dbt transformation failed", err)
	}
	return nil, nil
}
