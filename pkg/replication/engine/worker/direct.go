// Package worker provides the backends a replication attempt can run on.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// DirectWorker runs a replication in-process through a port.ReplicationRunner.
type DirectWorker struct {
	runner port.ReplicationRunner

	mu        sync.Mutex
	cancelRun context.CancelFunc
	cancelled bool
	finished  bool
}

var _ port.ReplicationWorker = (*DirectWorker)(nil)

// NewDirectWorker creates a DirectWorker.
func NewDirectWorker(runner port.ReplicationRunner) *DirectWorker {
	return &DirectWorker{runner: runner}
}

// Run executes the replication. A run stopped by Cancel or by the end of ctx yields
// an output with status cancelled instead of the runner's error.
func (w *DirectWorker) Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	const op = "DirectWorker.Run"

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		logger.Warnf("%s: cancelled before start.", op)
		return CancelledOutput(time.Now()), nil
	}
	w.cancelRun = cancel
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.finished = true
		w.cancelRun = nil
		w.mu.Unlock()
	}()

	start := time.Now()
	output, err := w.runner.Run(runCtx, input, jobRoot)
	if w.wasCancelled() || ctx.Err() != nil {
		logger.Infof("%s: replication stopped by cancellation.", op)
		if output == nil || err != nil {
			return CancelledOutput(start), nil
		}
		output.ReplicationAttemptSummary.Status = model.ReplicationStatusCancelled
		return output, nil
	}
	if err != nil {
		if exception.IsCancelled(err) {
			return nil, err
		}
		return nil, exception.NewWorkerExecutionError(op, "replication failed", err)
	}
	if output == nil {
		return nil, exception.New(exception.InternalError, op, "runner returned neither output nor error", nil)
	}
	return output, nil
}

// Cancel stops a running replication. Cancelling a finished worker is a no-op.
func (w *DirectWorker) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished || w.cancelled {
		return
	}
	w.cancelled = true
	if w.cancelRun != nil {
		w.cancelRun()
	}
	logger.Infof("DirectWorker: cancellation requested.")
}

func (w *DirectWorker) wasCancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelled
}

// CancelledOutput is the output of an attempt stopped before it produced its own.
func CancelledOutput(start time.Time) *model.ReplicationOutput {
	return &model.ReplicationOutput{
		ReplicationAttemptSummary: model.ReplicationAttemptSummary{
			Status:    model.ReplicationStatusCancelled,
			StartTime: start.UnixMilli(),
			EndTime:   time.Now().UnixMilli(),
		},
	}
}
