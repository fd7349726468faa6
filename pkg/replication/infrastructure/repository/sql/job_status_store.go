// Package sql persists replication state in a relational database through gorm.
package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// maxWriteAttempts bounds how often a write re-reads after losing an optimistic-lock race.
const maxWriteAttempts = 3

// ErrConcurrentStatusUpdate is returned when a write keeps losing to concurrent writers.
var ErrConcurrentStatusUpdate = errors.New("concurrent job status update")

// JobStatusStore is a gorm-backed repository.JobStatusStore.
type JobStatusStore struct {
	db *gorm.DB
}

// NewJobStatusStore creates a JobStatusStore over db.
func NewJobStatusStore(db *gorm.DB) *JobStatusStore {
	return &JobStatusStore{db: db}
}

// Write moves key to status if the move goes forward. Each attempt re-validates the
// transition against the row it read, and the update only applies if that row's
// version is still current.
func (s *JobStatusStore) Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error {
	const op = "SQLJobStatusStore.Write"

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		entity, found, err := s.find(ctx, key)
		if err != nil {
			return exception.New(exception.InternalError, op, fmt.Sprintf("failed to read status of %s", key), err)
		}

		current := model.JobStatusNotStarted
		if found {
			if current, err = model.ParseJobStatus(entity.Status); err != nil {
				return exception.New(exception.InternalError, op, fmt.Sprintf("corrupt status row for %s", key), err)
			}
		}
		changed, err := model.CheckTransition(key, current, status)
		if err != nil || !changed {
			return err
		}

		applied, err := s.apply(ctx, key, entity, found, status)
		if err != nil {
			return exception.New(exception.InternalError, op, fmt.Sprintf("failed to write status %s for %s", status, key), err)
		}
		if applied {
			return nil
		}
		logger.Debugf("%s: lost update race for %s (attempt %d/%d), re-reading", op, key, attempt, maxWriteAttempts)
	}
	return exception.New(exception.InternalError, op, fmt.Sprintf("status of %s kept changing during write", key), ErrConcurrentStatusUpdate)
}

func (s *JobStatusStore) apply(ctx context.Context, key model.JobRunKey, entity *JobStatusEntity, found bool, status model.JobStatus) (bool, error) {
	now := time.Now().UTC()
	if !found {
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&JobStatusEntity{JobID: key.JobID, AttemptID: key.AttemptID, Status: string(status), Version: 1, UpdatedAt: now})
		return res.RowsAffected == 1, res.Error
	}
	res := s.db.WithContext(ctx).
		Model(&JobStatusEntity{}).
		Where("job_id = ? AND attempt_id = ? AND version = ?", key.JobID, key.AttemptID, entity.Version).
		Updates(map[string]interface{}{
			"status":     string(status),
			"version":    entity.Version + 1,
			"updated_at": now,
		})
	return res.RowsAffected == 1, res.Error
}

// Read returns the status of key, NOT_STARTED if it was never written.
func (s *JobStatusStore) Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error) {
	const op = "SQLJobStatusStore.Read"

	entity, found, err := s.find(ctx, key)
	if err != nil {
		return "", exception.New(exception.InternalError, op, fmt.Sprintf("failed to read status of %s", key), err)
	}
	if !found {
		return model.JobStatusNotStarted, nil
	}
	status, err := model.ParseJobStatus(entity.Status)
	if err != nil {
		return "", exception.New(exception.InternalError, op, fmt.Sprintf("corrupt status row for %s", key), err)
	}
	return status, nil
}

func (s *JobStatusStore) find(ctx context.Context, key model.JobRunKey) (*JobStatusEntity, bool, error) {
	var entity JobStatusEntity
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND attempt_id = ?", key.JobID, key.AttemptID).
		Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &entity, true, nil
}

var _ repository.JobStatusStore = (*JobStatusStore)(nil)
