package jobstatus

import (
	"context"

	"go.uber.org/fx"

	gormadapter "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm"
	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

func newDatabaseProvider(lc fx.Lifecycle, cfg *config.Config) *gormadapter.Provider {
	p := gormadapter.NewProvider(cfg.AdapterSection(config.AdapterDatabase))
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return p.CloseAll() }})
	return p
}

func newStorageProvider(lc fx.Lifecycle, cfg *config.Config) *storage.ConfigProvider {
	p := storage.NewConfigProvider(cfg.AdapterSection(config.AdapterStorage))
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return p.CloseAll() }})
	return p
}

func provideJobStatusStore(lc fx.Lifecycle, factory *Factory, recorder metrics.MetricRecorder) (repository.JobStatusStore, error) {
	store, err := factory.Build(context.Background())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		logger.Debugf("Closing job status store connections.")
		return factory.Close()
	}})
	return NewInstrumentedStore(store, recorder), nil
}

// Module provides the configured JobStatusStore along with the database and storage
// providers it may draw connections from.
var Module = fx.Options(
	fx.Provide(
		newDatabaseProvider,
		fx.Annotate(newStorageProvider, fx.As(new(storage.Provider))),
		NewFactory,
		provideJobStatusStore,
	),
)
