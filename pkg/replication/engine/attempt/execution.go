// Package attempt runs one replication attempt inside its own job directory.
package attempt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// JobRoot returns the directory of one attempt: <workspaceRoot>/<jobId>/<attemptId>.
func JobRoot(workspaceRoot, jobID string, attemptID int) string {
	return filepath.Join(workspaceRoot, jobID, strconv.Itoa(attemptID))
}

// Execution prepares the job directory of an attempt and runs a worker in it.
type Execution struct {
	workspaceRoot string
	recorder      metrics.MetricRecorder
}

// NewExecution creates an Execution rooted at workspaceRoot.
func NewExecution(workspaceRoot string, recorder metrics.MetricRecorder) *Execution {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Execution{workspaceRoot: workspaceRoot, recorder: recorder}
}

// NewExecutionFromConfig creates an Execution from the replication section.
func NewExecutionFromConfig(cfg *config.Config, recorder metrics.MetricRecorder) *Execution {
	return NewExecution(cfg.Syncwave.Replication.WorkspaceRoot, recorder)
}

// JobRoot returns the directory the attempt identified by run executes in.
func (e *Execution) JobRoot(run model.JobRunConfig) string {
	return JobRoot(e.workspaceRoot, run.JobID, run.AttemptID)
}

// Run creates the job root and runs worker there.
func (e *Execution) Run(ctx context.Context, worker port.ReplicationWorker, input *model.ReplicationInput) (*model.ReplicationOutput, error) {
	const op = "Execution.Run"

	jobRoot := e.JobRoot(input.JobRunConfig)
	if err := os.MkdirAll(jobRoot, 0o755); err != nil {
		return nil, exception.NewConfigError(op, fmt.Sprintf("failed to create job root %s", jobRoot), err)
	}
	logger.Infof("%s: attempt %s running in %s.", op, input.JobRunConfig.Key(), jobRoot)

	start := time.Now()
	output, err := worker.Run(ctx, input, jobRoot)
	status := "error"
	if err == nil && output != nil {
		status = string(output.ReplicationAttemptSummary.Status)
	}
	e.recorder.RecordDuration(ctx, "replication_attempt", time.Since(start), map[string]string{"status": status})
	if err != nil {
		logger.Warnf("%s: attempt %s ended with error after %v: %v", op, input.JobRunConfig.Key(), time.Since(start), err)
		return nil, err
	}
	logger.Infof("%s: attempt %s finished with status %s in %v.", op, input.JobRunConfig.Key(), status, time.Since(start))
	return output, nil
}
