package activity

import "github.com/tigerroll/syncwave/pkg/replication/core/domain/model"

// ReduceReplicationOutput converts an attempt's output into the shape returned to
// the workflow engine. Slices are copied so that later marking does not alter output.
func ReduceReplicationOutput(output *model.ReplicationOutput) *model.StandardSyncOutput {
	s := output.ReplicationAttemptSummary
	summary := model.StandardSyncSummary{
		Status:             s.Status,
		RecordsSynced:      s.RecordsSynced,
		BytesSynced:        s.BytesSynced,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		TotalStats:         s.TotalStats,
		PerformanceMetrics: s.PerformanceMetrics,
	}
	if s.StreamStats != nil {
		summary.StreamStats = append([]model.StreamSyncStats{}, s.StreamStats...)
	}

	reduced := &model.StandardSyncOutput{
		StandardSyncSummary: summary,
		State:               output.State,
		OutputCatalog:       output.OutputCatalog,
	}
	if output.Failures != nil {
		reduced.Failures = append([]model.FailureReason{}, output.Failures...)
	}
	return reduced
}
