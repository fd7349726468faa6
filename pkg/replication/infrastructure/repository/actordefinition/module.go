// Package actordefinition provides the repository.ActorDefinitionRepository selected
// in `actor_definitions.type`.
package actordefinition

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	gormadapter "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/migration"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/inmemory"
	sqlstore "github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/sql"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "ActorDefinitionRepository"

// Repository types accepted in `actor_definitions.type`.
const (
	TypeInMemory = "inmemory"
	TypeSQL      = "sql"
)

// Params are the dependencies of NewRepository. The database provider is only
// needed by the sql repository.
type Params struct {
	fx.In
	Config    *config.Config
	Databases *gormadapter.Provider `optional:"true"`
}

// NewRepository opens the configured repository.
func NewRepository(p Params) (repository.ActorDefinitionRepository, error) {
	storeCfg := p.Config.Syncwave.ActorDefinitions
	switch storeCfg.Type {
	case "", TypeInMemory:
		logger.Warnf("%s: using the in-memory repository; it starts empty.", moduleName)
		return inmemory.NewActorDefinitionRepository(), nil
	case TypeSQL:
		return newSQLRepository(p.Databases, storeCfg)
	default:
		return nil, exception.NewConfigError(moduleName, fmt.Sprintf("unknown actor definition repository type '%s'", storeCfg.Type), nil)
	}
}

func newSQLRepository(databases *gormadapter.Provider, storeCfg config.ActorDefinitionStoreConfig) (repository.ActorDefinitionRepository, error) {
	if databases == nil {
		return nil, exception.NewConfigError(moduleName, "sql repository requires a database provider", nil)
	}
	conn, err := databases.GetConnection(storeCfg.DatabaseRef)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to open actor definition database", err)
	}
	if storeCfg.AutoMigrate {
		sqlDB, err := conn.DB().DB()
		if err != nil {
			return nil, exception.New(exception.InternalError, moduleName, "failed to access the underlying sql.DB", err)
		}
		if err := migration.NewMigrator(sqlDB, conn.Type()).Up(context.Background()); err != nil {
			return nil, err
		}
	}
	logger.Infof("%s: reading definitions from database '%s'.", moduleName, storeCfg.DatabaseRef)
	return sqlstore.NewActorDefinitionRepository(conn.DB()), nil
}

// Module provides repository.ActorDefinitionRepository. The sql repository draws
// its connection from the database provider of jobstatus.Module.
var Module = fx.Options(
	fx.Provide(NewRepository),
)
