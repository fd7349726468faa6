package activity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/syncwave/pkg/replication/activity"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

func TestReduceReplicationOutput(t *testing.T) {
	output := completedOutput()
	output.ReplicationAttemptSummary.TotalStats = &model.SyncStats{RecordsEmitted: 40}
	output.ReplicationAttemptSummary.PerformanceMetrics = map[string]interface{}{"p95": 1.5}
	output.State = &model.State{State: []byte(`{"cursor":"2024-01-01"}`)}

	reduced := activity.ReduceReplicationOutput(output)

	s := reduced.StandardSyncSummary
	assert.Equal(t, model.ReplicationStatusCompleted, s.Status)
	assert.EqualValues(t, 40, s.RecordsSynced)
	assert.EqualValues(t, 4096, s.BytesSynced)
	assert.EqualValues(t, 10, s.StartTime)
	assert.EqualValues(t, 20, s.EndTime)
	assert.Same(t, output.ReplicationAttemptSummary.TotalStats, s.TotalStats)
	assert.Equal(t, output.ReplicationAttemptSummary.StreamStats, s.StreamStats)
	assert.Equal(t, output.ReplicationAttemptSummary.PerformanceMetrics, s.PerformanceMetrics)
	assert.Same(t, output.State, reduced.State)
	assert.Equal(t, output.Failures, reduced.Failures)
}

func TestReduceReplicationOutput_NoFailures(t *testing.T) {
	reduced := activity.ReduceReplicationOutput(&model.ReplicationOutput{})
	assert.Nil(t, reduced.Failures)
	assert.Nil(t, reduced.StandardSyncSummary.StreamStats)
}
