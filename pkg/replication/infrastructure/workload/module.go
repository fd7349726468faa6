package workload

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

func provideOutputStore(cfg *config.Config, objects storage.Provider) (*StorageOutputStore, error) {
	wc := cfg.Syncwave.WorkloadAPI
	if wc.OutputStorageRef == "" {
		return nil, exception.NewConfigError(moduleName, "workload_api.output_storage_ref is required", nil)
	}
	conn, err := objects.GetConnection(context.Background(), wc.OutputStorageRef)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to open workload output storage", err)
	}
	return NewStorageOutputStore(conn, wc.OutputBucket), nil
}

// Module provides the workload service client and the output store. It is only
// included when replication.workload_enabled is set.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewClientFromConfig, fx.As(new(port.WorkloadAPI))),
		fx.Annotate(provideOutputStore, fx.As(new(port.WorkloadOutputReader)), fx.As(new(port.WorkloadOutputWriter))),
	),
)
