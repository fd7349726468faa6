package port

import (
	"context"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

// ReplicationWorker executes one replication attempt under one backend.
// Cancel may be called at any time, from any goroutine, any number of times;
// cancelling a finished worker is a no-op.
type ReplicationWorker interface {
	Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error)
	Cancel()
}
