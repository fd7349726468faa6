// Package inmemory provides map-backed implementations of the replication repositories.
// They hold state for the life of the process only.
package inmemory

import (
	"context"
	"sync"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
)

// JobStatusStore is an in-memory repository.JobStatusStore.
type JobStatusStore struct {
	mu       sync.RWMutex
	statuses map[model.JobRunKey]model.JobStatus
}

// NewJobStatusStore creates an empty JobStatusStore.
func NewJobStatusStore() *JobStatusStore {
	return &JobStatusStore{statuses: make(map[model.JobRunKey]model.JobStatus)}
}

// Write moves key to status if the move goes forward.
func (s *JobStatusStore) Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.statuses[key]
	if !ok {
		current = model.JobStatusNotStarted
	}
	changed, err := model.CheckTransition(key, current, status)
	if err != nil || !changed {
		return err
	}
	s.statuses[key] = status
	return nil
}

// Read returns the status of key, NOT_STARTED if it was never written.
func (s *JobStatusStore) Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status, ok := s.statuses[key]; ok {
		return status, nil
	}
	return model.JobStatusNotStarted, nil
}

var _ repository.JobStatusStore = (*JobStatusStore)(nil)
