package model

import (
	"fmt"

	"github.com/google/uuid"
)

// WorkloadType is the kind of work tracked by the workload service.
type WorkloadType string

const (
	WorkloadTypeSync     WorkloadType = "sync"
	WorkloadTypeCheck    WorkloadType = "check"
	WorkloadTypeDiscover WorkloadType = "discover"
	WorkloadTypeSpec     WorkloadType = "spec"
)

// WorkloadStatus is the status of a workload as tracked by the workload service.
type WorkloadStatus string

const (
	WorkloadStatusPending   WorkloadStatus = "pending"
	WorkloadStatusClaimed   WorkloadStatus = "claimed"
	WorkloadStatusLaunched  WorkloadStatus = "launched"
	WorkloadStatusRunning   WorkloadStatus = "running"
	WorkloadStatusSuccess   WorkloadStatus = "success"
	WorkloadStatusFailure   WorkloadStatus = "failure"
	WorkloadStatusCancelled WorkloadStatus = "cancelled"
)

// IsTerminal reports whether the workload has finished.
func (s WorkloadStatus) IsTerminal() bool {
	return s == WorkloadStatusSuccess || s == WorkloadStatusFailure || s == WorkloadStatusCancelled
}

// WorkloadID derives the workload identifier of a job attempt.
// The same inputs always produce the same id.
func WorkloadID(connectionID uuid.UUID, jobID string, attemptID int, workloadType WorkloadType) string {
	return fmt.Sprintf("%s_%s_%d_%s", connectionID, jobID, attemptID, workloadType)
}
