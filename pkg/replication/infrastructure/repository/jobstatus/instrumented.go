package jobstatus

import (
	"context"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// InstrumentedStore counts every status write, labeled by whether the backend accepted it.
type InstrumentedStore struct {
	next     repository.JobStatusStore
	recorder metrics.MetricRecorder
}

var _ repository.JobStatusStore = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps next.
func NewInstrumentedStore(next repository.JobStatusStore, recorder metrics.MetricRecorder) *InstrumentedStore {
	return &InstrumentedStore{next: next, recorder: recorder}
}

func (s *InstrumentedStore) Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error {
	err := s.next.Write(ctx, key, status)
	s.recorder.RecordJobStatusTransition(ctx, string(status), err == nil)
	if err != nil {
		logger.Warnf("Job status write %s -> %s rejected: %v", key, status, err)
		return err
	}
	logger.Debugf("Job status of %s is now %s.", key, status)
	return nil
}

func (s *InstrumentedStore) Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error) {
	return s.next.Read(ctx, key)
}
