package workload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

// OutputObjectName is the object a workload writes its ReplicationOutput to, under its id.
const OutputObjectName = "output.json"

// StorageOutputStore exchanges workload outputs through an object store. The
// orchestrator running a workload writes the output; the coordinator waiting on it reads it.
type StorageOutputStore struct {
	objects storage.ObjectExecutor
	bucket  string
}

var (
	_ port.WorkloadOutputReader = (*StorageOutputStore)(nil)
	_ port.WorkloadOutputWriter = (*StorageOutputStore)(nil)
)

// NewStorageOutputStore creates a store over bucket.
func NewStorageOutputStore(objects storage.ObjectExecutor, bucket string) *StorageOutputStore {
	return &StorageOutputStore{objects: objects, bucket: bucket}
}

// WriteOutput uploads output as `<workloadID>/output.json`.
func (r *StorageOutputStore) WriteOutput(ctx context.Context, workloadID string, output *model.ReplicationOutput) error {
	const op = "StorageOutputStore.WriteOutput"

	data, err := json.Marshal(output)
	if err != nil {
		return exception.New(exception.InternalError, op, fmt.Sprintf("failed to serialize output of workload %s", workloadID), err)
	}
	name := path.Join(workloadID, OutputObjectName)
	if err := r.objects.Upload(ctx, r.bucket, name, bytes.NewReader(data), "application/json"); err != nil {
		return exception.New(exception.InternalError, op, fmt.Sprintf("failed to upload %s", name), err)
	}
	return nil
}

// ReadOutput decodes `<workloadID>/output.json`.
func (r *StorageOutputStore) ReadOutput(ctx context.Context, workloadID string) (*model.ReplicationOutput, error) {
	const op = "StorageOutputStore.ReadOutput"

	name := path.Join(workloadID, OutputObjectName)
	rc, err := r.objects.Download(ctx, r.bucket, name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, exception.NewNotFoundError(op, fmt.Sprintf("no output for workload %s", workloadID), err)
		}
		return nil, exception.New(exception.InternalError, op, fmt.Sprintf("failed to download %s", name), err)
	}
	defer rc.Close()

	var out model.ReplicationOutput
	if err := json.NewDecoder(rc).Decode(&out); err != nil {
		return nil, exception.New(exception.InternalError, op, fmt.Sprintf("malformed output for workload %s", workloadID), err)
	}
	return &out, nil
}
