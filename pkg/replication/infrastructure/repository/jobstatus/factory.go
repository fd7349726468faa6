// Package jobstatus builds the configured repository.JobStatusStore backend.
package jobstatus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	goredis "github.com/redis/go-redis/v9"

	gormadapter "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm"
	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/migration"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/document"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/inmemory"
	redisstore "github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/redis"
	sqlstore "github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/sql"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "JobStatusStoreFactory"

// Backend types accepted in `job_status_store.type`.
const (
	TypeInMemory = "inmemory"
	TypeSQL      = "sql"
	TypeDocument = "document"
	TypeRedis    = "redis"
)

// Factory opens the job status backend selected in configuration and owns the
// connections it opened.
type Factory struct {
	cfg       *config.Config
	databases *gormadapter.Provider
	objects   storage.Provider

	mu           sync.Mutex
	redisClients []*goredis.Client
}

// NewFactory creates a Factory. The providers are only used by the backends that need them.
func NewFactory(cfg *config.Config, databases *gormadapter.Provider, objects storage.Provider) *Factory {
	return &Factory{cfg: cfg, databases: databases, objects: objects}
}

// Build opens the configured backend.
func (f *Factory) Build(ctx context.Context) (repository.JobStatusStore, error) {
	storeCfg := f.cfg.Syncwave.JobStatusStore
	switch storeCfg.Type {
	case "", TypeInMemory:
		logger.Warnf("%s: using the in-memory job status store; status is lost when the process exits.", moduleName)
		return inmemory.NewJobStatusStore(), nil
	case TypeSQL:
		return f.buildSQL(ctx, storeCfg)
	case TypeDocument:
		return f.buildDocument(ctx, storeCfg)
	case TypeRedis:
		return f.buildRedis(storeCfg)
	default:
		return nil, exception.NewConfigError(moduleName, fmt.Sprintf("unknown job status store type '%s'", storeCfg.Type), nil)
	}
}

func (f *Factory) buildSQL(ctx context.Context, storeCfg config.JobStatusStoreConfig) (repository.JobStatusStore, error) {
	if f.databases == nil {
		return nil, exception.NewConfigError(moduleName, "sql job status store requires a database provider", nil)
	}
	conn, err := f.databases.GetConnection(storeCfg.DatabaseRef)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to open job status database", err)
	}
	if storeCfg.AutoMigrate {
		sqlDB, err := conn.DB().DB()
		if err != nil {
			return nil, exception.New(exception.InternalError, moduleName, "failed to access the underlying sql.DB", err)
		}
		if err := migration.NewMigrator(sqlDB, conn.Type()).Up(ctx); err != nil {
			return nil, err
		}
	}
	logger.Infof("%s: using sql job status store on database '%s'.", moduleName, storeCfg.DatabaseRef)
	return sqlstore.NewJobStatusStore(conn.DB()), nil
}

func (f *Factory) buildDocument(ctx context.Context, storeCfg config.JobStatusStoreConfig) (repository.JobStatusStore, error) {
	if f.objects == nil {
		return nil, exception.NewConfigError(moduleName, "document job status store requires a storage provider", nil)
	}
	if storeCfg.Bucket == "" {
		return nil, exception.NewConfigError(moduleName, "document job status store requires job_status_store.bucket", nil)
	}
	objects, err := f.objects.GetConnection(ctx, storeCfg.StorageRef)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to open job status storage", err)
	}
	logger.Infof("%s: using %s document job status store in bucket '%s'.", moduleName, objects.Type(), storeCfg.Bucket)
	return document.NewJobStatusStore(objects, storeCfg.Bucket, storeCfg.Prefix), nil
}

func (f *Factory) buildRedis(storeCfg config.JobStatusStoreConfig) (repository.JobStatusStore, error) {
	raw, ok := f.cfg.AdapterSection(config.AdapterRedis)[storeCfg.RedisRef]
	if !ok {
		return nil, exception.NewConfigError(moduleName, fmt.Sprintf("redis configuration '%s' not found in adapter.redis configs", storeCfg.RedisRef), nil)
	}
	connCfg, err := redisstore.DecodeConfig(raw)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, fmt.Sprintf("invalid redis configuration '%s'", storeCfg.RedisRef), err)
	}
	client := redisstore.NewClient(connCfg.Addr, connCfg.Password, connCfg.DB)

	f.mu.Lock()
	f.redisClients = append(f.redisClients, client)
	f.mu.Unlock()

	logger.Infof("%s: using redis job status store at %s.", moduleName, connCfg.Addr)
	return redisstore.NewJobStatusStore(client, storeCfg.Prefix, time.Duration(storeCfg.TTLSeconds)*time.Second), nil
}

// Close releases the redis clients opened by Build. Database and storage
// connections belong to their providers.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result *multierror.Error
	for _, c := range f.redisClients {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	f.redisClients = nil
	return result.ErrorOrNil()
}
