package model

import (
	"errors"
	"fmt"
)

// JobRunKey identifies one execution attempt of a job.
type JobRunKey struct {
	JobID     string `json:"jobId"`
	AttemptID int    `json:"attemptId"`
}

// NewJobRunKey creates a JobRunKey.
func NewJobRunKey(jobID string, attemptID int) JobRunKey {
	return JobRunKey{JobID: jobID, AttemptID: attemptID}
}

// String returns "<jobId>/<attemptId>".
func (k JobRunKey) String() string {
	return fmt.Sprintf("%s/%d", k.JobID, k.AttemptID)
}

// JobStatus is the lifecycle status of one job run.
type JobStatus string

const (
	JobStatusNotStarted   JobStatus = "NOT_STARTED"
	JobStatusInitializing JobStatus = "INITIALIZING"
	JobStatusRunning      JobStatus = "RUNNING"
	JobStatusSucceeded    JobStatus = "SUCCEEDED"
	JobStatusFailed       JobStatus = "FAILED"
)

// AllJobStatuses lists every status in rank order.
var AllJobStatuses = []JobStatus{
	JobStatusNotStarted,
	JobStatusInitializing,
	JobStatusRunning,
	JobStatusSucceeded,
	JobStatusFailed,
}

// ErrInvalidStatusTransition is wrapped by every rejected status write.
var ErrInvalidStatusTransition = errors.New("invalid job status transition")

// Rank returns the position of s in the partial order
// NOT_STARTED < INITIALIZING < RUNNING < {SUCCEEDED, FAILED}, or -1 for an unknown status.
func (s JobStatus) Rank() int {
	switch s {
	case JobStatusNotStarted:
		return 0
	case JobStatusInitializing:
		return 1
	case JobStatusRunning:
		return 2
	case JobStatusSucceeded, JobStatusFailed:
		return 3
	}
	return -1
}

// IsValid reports whether s is a known status.
func (s JobStatus) IsValid() bool {
	return s.Rank() >= 0
}

// IsTerminal reports whether s is SUCCEEDED or FAILED.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// CanTransitionTo reports whether moving from s to next goes strictly forward.
// Terminal statuses accept no transition, so SUCCEEDED and FAILED stay mutually exclusive.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	return next.Rank() > s.Rank()
}

// ParseJobStatus converts a stored value into a JobStatus.
func ParseJobStatus(v string) (JobStatus, error) {
	s := JobStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown job status %q", v)
	}
	return s, nil
}

// CheckTransition validates a status write for key.
// It returns changed=false with no error when current already equals target,
// and an error wrapping ErrInvalidStatusTransition for any non-forward move.
func CheckTransition(key JobRunKey, current, target JobStatus) (changed bool, err error) {
	if current == target && target.IsValid() {
		return false, nil
	}
	if !current.CanTransitionTo(target) {
		return false, fmt.Errorf("JobRun (%s): %s -> %s: %w", key, current, target, ErrInvalidStatusTransition)
	}
	return true, nil
}
