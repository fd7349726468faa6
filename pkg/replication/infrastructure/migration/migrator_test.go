package migration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/migration"
	repsql "github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/sql"
)

func TestMigrator_UpCreatesUsableSchema(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	m := migration.NewMigrator(sqlDB, "sqlite")
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx), "re-running on an up-to-date schema is a no-op")

	for _, table := range []string{"replication_job_status", "actor_definition", "actor", "actor_definition_version"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	store := repsql.NewJobStatusStore(db)
	key := model.NewJobRunKey("42", 1)
	require.NoError(t, store.Write(ctx, key, model.JobStatusInitializing))
	status, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusInitializing, status)

	require.NoError(t, m.Down(ctx))
	assert.False(t, db.Migrator().HasTable("replication_job_status"))
}

func TestMigrator_UnsupportedDialect(t *testing.T) {
	m := migration.NewMigrator(nil, "oracle")
	err := m.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}
