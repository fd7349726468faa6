// Package document persists job status as marker objects in an object store.
// Each status a run reaches is written as an empty object named after the status,
// so the layout for one run is
//
//	<prefix>/<jobId>/<attemptId>/INITIALIZING
//	<prefix>/<jobId>/<attemptId>/RUNNING
//	<prefix>/<jobId>/<attemptId>/SUCCEEDED
//
// and the current status is the highest-ranked marker present.
package document

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// JobStatusStore is a repository.JobStatusStore over a storage.ObjectExecutor.
// Marker objects are never removed, so a reader that lists while a writer uploads
// sees either the previous or the new status.
type JobStatusStore struct {
	objects storage.ObjectExecutor
	bucket  string
	prefix  string
}

var _ repository.JobStatusStore = (*JobStatusStore)(nil)

// NewJobStatusStore creates a store writing under bucket/prefix.
func NewJobStatusStore(objects storage.ObjectExecutor, bucket, prefix string) *JobStatusStore {
	return &JobStatusStore{objects: objects, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *JobStatusStore) runDir(key model.JobRunKey) string {
	return path.Join(s.prefix, key.JobID, strconv.Itoa(key.AttemptID)) + "/"
}

// Write adds the marker for status if the move goes forward.
func (s *JobStatusStore) Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error {
	const op = "DocumentJobStatusStore.Write"

	current, err := s.Read(ctx, key)
	if err != nil {
		return err
	}
	changed, err := model.CheckTransition(key, current, status)
	if err != nil || !changed {
		return err
	}
	name := s.runDir(key) + string(status)
	if err := s.objects.Upload(ctx, s.bucket, name, bytes.NewReader(nil), "text/plain"); err != nil {
		return exception.New(exception.InternalError, op, fmt.Sprintf("failed to write status marker %s", name), err)
	}
	logger.Debugf("%s: %s %s -> %s", op, key, current, status)
	return nil
}

// Read returns the highest-ranked status marker of key, NOT_STARTED if none exists.
// Objects under the run directory that are not status names are ignored.
func (s *JobStatusStore) Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error) {
	const op = "DocumentJobStatusStore.Read"

	dir := s.runDir(key)
	best := model.JobStatusNotStarted
	err := s.objects.ListObjects(ctx, s.bucket, dir, func(objectName string) error {
		marker := strings.TrimPrefix(objectName, dir)
		if strings.Contains(marker, "/") {
			return nil
		}
		status, err := model.ParseJobStatus(marker)
		if err != nil {
			return nil
		}
		if status.Rank() > best.Rank() {
			best = status
		}
		return nil
	})
	if err != nil {
		return "", exception.New(exception.InternalError, op, fmt.Sprintf("failed to list status markers of %s", key), err)
	}
	return best, nil
}
