package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// WorkerBackend decides how a constructed worker is executed.
type WorkerBackend interface {
	Name() string
	Run(ctx context.Context, worker port.ReplicationWorker, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error)
}

// DirectBackend runs the worker and returns its output.
type DirectBackend struct{}

var _ WorkerBackend = (*DirectBackend)(nil)

// NewDirectBackend creates a DirectBackend.
func NewDirectBackend() *DirectBackend { return &DirectBackend{} }

func (b *DirectBackend) Name() string { return "direct" }

func (b *DirectBackend) Run(ctx context.Context, worker port.ReplicationWorker, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	return worker.Run(ctx, input, jobRoot)
}

// reportTimeout bounds the status report and output publication of one run.
const reportTimeout = 30 * time.Second

// WorkloadBackend runs the worker and reports the outcome to the workload service.
type WorkloadBackend struct {
	api      port.WorkloadAPI
	outputs  port.WorkloadOutputWriter
	recorder metrics.MetricRecorder
}

var _ WorkerBackend = (*WorkloadBackend)(nil)

// NewWorkloadBackend creates a WorkloadBackend. outputs may be nil, in which case
// the output is not published.
func NewWorkloadBackend(api port.WorkloadAPI, outputs port.WorkloadOutputWriter, recorder metrics.MetricRecorder) *WorkloadBackend {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &WorkloadBackend{api: api, outputs: outputs, recorder: recorder}
}

func (b *WorkloadBackend) Name() string { return "workload" }

// Run executes the worker and maps its terminal status onto a workload status report.
// A failing worker is still reported as FAILURE before its error is returned.
// Reports are sent even when ctx is already done, so a cancelled run still reaches
// the workload service as CANCELLED.
func (b *WorkloadBackend) Run(ctx context.Context, worker port.ReplicationWorker, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	const op = "WorkloadBackend.Run"

	run := input.JobRunConfig
	workloadID := model.WorkloadID(input.ConnectionID, run.JobID, run.AttemptID, model.WorkloadTypeSync)

	output, err := worker.Run(ctx, input, jobRoot)

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	if err == nil && output == nil {
		err = exception.New(exception.InternalError, op, "worker returned neither output nor error", nil)
	}
	if err != nil {
		if reportErr := b.report(reportCtx, workloadID, model.WorkloadStatusFailure, exception.ExtractErrorMessage(err)); reportErr != nil {
			logger.Errorf("%s: failed to report FAILURE for workload %s: %v", op, workloadID, reportErr)
		}
		return nil, err
	}

	var status model.WorkloadStatus
	switch output.ReplicationAttemptSummary.Status {
	case model.ReplicationStatusFailed:
		status = model.WorkloadStatusFailure
	case model.ReplicationStatusCancelled:
		status = model.WorkloadStatusCancelled
	case model.ReplicationStatusCompleted:
		status = model.WorkloadStatusSuccess
	default:
		return nil, exception.Newf(exception.InternalError, op, "unknown replication status %q", output.ReplicationAttemptSummary.Status)
	}

	if b.outputs != nil {
		if err := b.outputs.WriteOutput(reportCtx, workloadID, output); err != nil {
			if reportErr := b.report(reportCtx, workloadID, model.WorkloadStatusFailure, "failed to publish output"); reportErr != nil {
				logger.Errorf("%s: failed to report FAILURE for workload %s: %v", op, workloadID, reportErr)
			}
			return nil, err
		}
	}
	if err := b.report(reportCtx, workloadID, status, ""); err != nil {
		return nil, err
	}
	return output, nil
}

func (b *WorkloadBackend) report(ctx context.Context, workloadID string, status model.WorkloadStatus, reason string) error {
	err := b.api.ReportStatus(ctx, workloadID, status, reason)
	b.recorder.RecordWorkloadStatusReported(ctx, string(status), err == nil)
	if err != nil {
		return exception.New(exception.InternalError, "WorkloadBackend.report", fmt.Sprintf("failed to report %s for workload %s", status, workloadID), err)
	}
	logger.Infof("WorkloadBackend: workload %s reported as %s.", workloadID, status)
	return nil
}

// NewWorkerBackend selects the backend from replication.workload_enabled.
func NewWorkerBackend(cfg *config.Config, api port.WorkloadAPI, outputs port.WorkloadOutputWriter, recorder metrics.MetricRecorder) (WorkerBackend, error) {
	if !cfg.Syncwave.Replication.WorkloadEnabled {
		return NewDirectBackend(), nil
	}
	if api == nil {
		return nil, exception.NewConfigError("NewWorkerBackend", "replication.workload_enabled requires a workload API client", nil)
	}
	return NewWorkloadBackend(api, outputs, recorder), nil
}
