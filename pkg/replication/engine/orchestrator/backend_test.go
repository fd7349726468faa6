package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/orchestrator"
	"github.com/tigerroll/syncwave/pkg/replication/engine/worker"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

type mockWorkloadAPI struct{ mock.Mock }

func (m *mockWorkloadAPI) Create(context.Context, port.WorkloadCreateRequest) error { return nil }

func (m *mockWorkloadAPI) GetStatus(context.Context, string) (model.WorkloadStatus, error) {
	return model.WorkloadStatusRunning, nil
}

func (m *mockWorkloadAPI) ReportStatus(_ context.Context, workloadID string, status model.WorkloadStatus, _ string) error {
	return m.Called(workloadID, status).Error(0)
}

func (m *mockWorkloadAPI) Cancel(context.Context, string, string) error { return nil }

type mockOutputWriter struct{ mock.Mock }

func (m *mockOutputWriter) WriteOutput(_ context.Context, workloadID string, _ *model.ReplicationOutput) error {
	return m.Called(workloadID).Error(0)
}

type mockRecorder struct {
	metrics.NoOpMetricRecorder
	mock.Mock
}

func (m *mockRecorder) RecordWorkloadStatusReported(_ context.Context, status string, success bool) {
	m.Called(status, success)
}

type stubWorker struct {
	output *model.ReplicationOutput
	err    error
}

func (w *stubWorker) Run(context.Context, *model.ReplicationInput, string) (*model.ReplicationOutput, error) {
	return w.output, w.err
}

func (w *stubWorker) Cancel() {}

func TestWorkloadBackend_StatusMapping(t *testing.T) {
	tests := []struct {
		status   model.ReplicationStatus
		reported model.WorkloadStatus
	}{
		{model.ReplicationStatusCompleted, model.WorkloadStatusSuccess},
		{model.ReplicationStatusFailed, model.WorkloadStatusFailure},
		{model.ReplicationStatusCancelled, model.WorkloadStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			input := newInput()
			workloadID := model.WorkloadID(input.ConnectionID, "88", 1, model.WorkloadTypeSync)
			api := &mockWorkloadAPI{}
			api.On("ReportStatus", workloadID, tt.reported).Return(nil).Once()
			recorder := &mockRecorder{}
			recorder.On("RecordWorkloadStatusReported", string(tt.reported), true).Once()

			out, err := orchestrator.NewWorkloadBackend(api, nil, recorder).Run(context.Background(), &stubWorker{output: outputWith(tt.status)}, input, "/ws")
			require.NoError(t, err)
			assert.Equal(t, tt.status, out.ReplicationAttemptSummary.Status)
			api.AssertExpectations(t)
			recorder.AssertExpectations(t)
		})
	}
}

func TestWorkloadBackend_UnknownStatusIsInternalError(t *testing.T) {
	api := &mockWorkloadAPI{}
	_, err := orchestrator.NewWorkloadBackend(api, nil, nil).Run(context.Background(), &stubWorker{output: outputWith("paused")}, newInput(), "/ws")

	assert.True(t, errors.Is(err, exception.ErrInternal))
	api.AssertNotCalled(t, "ReportStatus", mock.Anything, mock.Anything)
}

func TestWorkloadBackend_WorkerFailureReportsFailureFirst(t *testing.T) {
	input := newInput()
	workloadID := model.WorkloadID(input.ConnectionID, "88", 1, model.WorkloadTypeSync)
	api := &mockWorkloadAPI{}
	api.On("ReportStatus", workloadID, model.WorkloadStatusFailure).Return(nil).Once()
	boom := exception.NewWorkerExecutionError("test", "source crashed", nil)

	_, err := orchestrator.NewWorkloadBackend(api, nil, nil).Run(context.Background(), &stubWorker{err: boom}, input, "/ws")
	assert.ErrorIs(t, err, boom)
	api.AssertExpectations(t)
}

func TestWorkloadBackend_WorkerFailurePropagatesEvenIfReportFails(t *testing.T) {
	api := &mockWorkloadAPI{}
	api.On("ReportStatus", mock.Anything, model.WorkloadStatusFailure).Return(errors.New("503")).Once()
	boom := errors.New("boom")

	_, err := orchestrator.NewWorkloadBackend(api, nil, nil).Run(context.Background(), &stubWorker{err: boom}, newInput(), "/ws")
	assert.ErrorIs(t, err, boom)
}

func TestWorkloadBackend_OutputPublishFailureReportsFailure(t *testing.T) {
	input := newInput()
	workloadID := model.WorkloadID(input.ConnectionID, "88", 1, model.WorkloadTypeSync)
	api := &mockWorkloadAPI{}
	api.On("ReportStatus", workloadID, model.WorkloadStatusFailure).Return(nil).Once()
	outputs := &mockOutputWriter{}
	publishErr := errors.New("bucket unavailable")
	outputs.On("WriteOutput", workloadID).Return(publishErr).Once()

	_, err := orchestrator.NewWorkloadBackend(api, outputs, nil).Run(context.Background(),
		&stubWorker{output: outputWith(model.ReplicationStatusCompleted)}, input, "/ws")
	assert.ErrorIs(t, err, publishErr)
	api.AssertExpectations(t)
}

// liveContextAPI records the statuses it was asked to report, refusing any
// report whose context is already done.
type liveContextAPI struct {
	mockWorkloadAPI
	reported []model.WorkloadStatus
}

func (a *liveContextAPI) ReportStatus(ctx context.Context, _ string, status model.WorkloadStatus, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.reported = append(a.reported, status)
	return nil
}

func TestWorkloadBackend_CancelledRunIsReportedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := worker.NewDirectWorker(runnerFunc(func(ctx context.Context, _ *model.ReplicationInput, _ string) (*model.ReplicationOutput, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	api := &liveContextAPI{}

	out, err := orchestrator.NewWorkloadBackend(api, nil, nil).Run(ctx, w, newInput(), "/ws")
	require.NoError(t, err)
	assert.Equal(t, model.ReplicationStatusCancelled, out.ReplicationAttemptSummary.Status)
	assert.Equal(t, []model.WorkloadStatus{model.WorkloadStatusCancelled}, api.reported)
}

func TestWorkloadBackend_FailureReportedAfterContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &liveContextAPI{}
	boom := errors.New("boom")

	_, err := orchestrator.NewWorkloadBackend(api, nil, nil).Run(ctx, &stubWorker{err: boom}, newInput(), "/ws")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []model.WorkloadStatus{model.WorkloadStatusFailure}, api.reported)
}

func TestWorkloadBackend_NilOutputIsInternalError(t *testing.T) {
	api := &liveContextAPI{}

	out, err := orchestrator.NewWorkloadBackend(api, nil, nil).Run(context.Background(), &stubWorker{}, newInput(), "/ws")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, exception.ErrInternal)
	assert.Equal(t, []model.WorkloadStatus{model.WorkloadStatusFailure}, api.reported)
}

func TestNewWorkerBackend(t *testing.T) {
	cfg := config.NewConfig()
	b, err := orchestrator.NewWorkerBackend(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "direct", b.Name())

	cfg.Syncwave.Replication.WorkloadEnabled = true
	_, err = orchestrator.NewWorkerBackend(cfg, nil, nil, nil)
	assert.True(t, errors.Is(err, exception.ErrConfig))

	b, err = orchestrator.NewWorkerBackend(cfg, &mockWorkloadAPI{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "workload", b.Name())
}
