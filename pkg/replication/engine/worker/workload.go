package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

// DefaultPollInterval is used when no positive poll interval is given.
const DefaultPollInterval = 5 * time.Second

// WorkloadWorker hands a replication over to the remote workload service and waits
// for its terminal status.
type WorkloadWorker struct {
	api          port.WorkloadAPI
	outputs      port.WorkloadOutputReader
	input        *model.ReplicationActivityInput
	pollInterval time.Duration

	mu              sync.Mutex
	workloadID      string
	finished        bool
	cancelRequested bool
	cancelled       chan struct{}
}

var _ port.ReplicationWorker = (*WorkloadWorker)(nil)

// NewWorkloadWorker creates a worker for one activity invocation. input is the
// payload the workload receives; it carries identifiers, not hydrated secrets.
func NewWorkloadWorker(api port.WorkloadAPI, outputs port.WorkloadOutputReader, input *model.ReplicationActivityInput, pollInterval time.Duration) *WorkloadWorker {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &WorkloadWorker{
		api:          api,
		outputs:      outputs,
		input:        input,
		pollInterval: pollInterval,
		cancelled:    make(chan struct{}),
	}
}

// Run creates the workload and polls it until it is terminal.
func (w *WorkloadWorker) Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	const op = "WorkloadWorker.Run"

	run := input.JobRunConfig
	workloadID := model.WorkloadID(input.ConnectionID, run.JobID, run.AttemptID, model.WorkloadTypeSync)
	w.mu.Lock()
	if w.cancelRequested {
		w.mu.Unlock()
		logger.Warnf("%s: cancelled before workload %s was created.", op, workloadID)
		return CancelledOutput(time.Now()), nil
	}
	w.workloadID = workloadID
	w.mu.Unlock()
	defer w.markFinished()

	payload, err := serialization.Serialize(w.input)
	if err != nil {
		return nil, err
	}
	req := port.WorkloadCreateRequest{
		WorkloadID: workloadID,
		Type:       model.WorkloadTypeSync,
		Labels: map[string]string{
			"connection_id": input.ConnectionID.String(),
			"workspace_id":  input.WorkspaceID.String(),
			"job_id":        run.JobID,
			"attempt_id":    strconv.Itoa(run.AttemptID),
		},
		InputPayload: payload,
		LogPath:      filepath.Join(jobRoot, "logs.log"),
	}
	if err := w.api.Create(ctx, req); err != nil {
		return nil, exception.NewWorkerExecutionError(op, fmt.Sprintf("failed to create workload %s", workloadID), err)
	}
	logger.Infof("%s: workload %s created; polling every %v.", op, workloadID, w.pollInterval)

	start := time.Now()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Cancel()
			return nil, exception.NewCancelledError(op, fmt.Sprintf("stopped waiting for workload %s", workloadID), ctx.Err())
		case <-w.cancelled:
			logger.Infof("%s: workload %s cancelled.", op, workloadID)
			return w.terminalOutput(ctx, workloadID, model.WorkloadStatusCancelled, start)
		case <-ticker.C:
			status, err := w.api.GetStatus(ctx, workloadID)
			if err != nil {
				if errors.Is(err, exception.ErrNotFound) {
					return nil, exception.NewWorkerExecutionError(op, fmt.Sprintf("workload %s disappeared", workloadID), err)
				}
				logger.Warnf("%s: failed to poll workload %s, retrying: %v", op, workloadID, err)
				continue
			}
			if !status.IsTerminal() {
				logger.Debugf("%s: workload %s is %s.", op, workloadID, status)
				continue
			}
			logger.Infof("%s: workload %s reached %s.", op, workloadID, status)
			return w.terminalOutput(ctx, workloadID, status, start)
		}
	}
}

// terminalOutput reads the output the workload published. Without one, a
// cancelled workload gets a synthesized cancelled output and a failed one an error.
func (w *WorkloadWorker) terminalOutput(ctx context.Context, workloadID string, status model.WorkloadStatus, start time.Time) (*model.ReplicationOutput, error) {
	const op = "WorkloadWorker.terminalOutput"

	output, err := w.outputs.ReadOutput(ctx, workloadID)
	if err == nil {
		return output, nil
	}
	switch status {
	case model.WorkloadStatusCancelled:
		return CancelledOutput(start), nil
	case model.WorkloadStatusFailure:
		return nil, exception.NewWorkerExecutionError(op, fmt.Sprintf("workload %s failed without output", workloadID), err)
	default:
		return nil, exception.NewWorkerExecutionError(op, fmt.Sprintf("failed to read output of workload %s", workloadID), err)
	}
}

func (w *WorkloadWorker) markFinished() {
	w.mu.Lock()
	w.finished = true
	w.mu.Unlock()
}

// Cancel asks the workload service to stop the workload and ends the wait.
// Cancelling a finished worker is a no-op; cancelling one that has not created
// its workload yet prevents the creation.
func (w *WorkloadWorker) Cancel() {
	w.mu.Lock()
	if w.finished || w.cancelRequested {
		w.mu.Unlock()
		return
	}
	w.cancelRequested = true
	id := w.workloadID
	close(w.cancelled)
	w.mu.Unlock()

	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.api.Cancel(ctx, id, "cancelled by the workflow engine"); err != nil {
		logger.Errorf("WorkloadWorker: failed to cancel workload %s: %v", id, err)
	}
}
