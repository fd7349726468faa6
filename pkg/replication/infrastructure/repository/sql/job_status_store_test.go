package sql_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	repsql "github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/sql"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(repsql.AllEntities()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSQLJobStatusStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := repsql.NewJobStatusStore(openSQLite(t))
	key := model.NewJobRunKey("100", 1)

	status, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusNotStarted, status)

	require.NoError(t, store.Write(ctx, key, model.JobStatusInitializing))
	require.NoError(t, store.Write(ctx, key, model.JobStatusRunning))
	require.NoError(t, store.Write(ctx, key, model.JobStatusRunning))
	assert.ErrorIs(t, store.Write(ctx, key, model.JobStatusInitializing), model.ErrInvalidStatusTransition)
	require.NoError(t, store.Write(ctx, key, model.JobStatusFailed))
	assert.ErrorIs(t, store.Write(ctx, key, model.JobStatusSucceeded), model.ErrInvalidStatusTransition)

	status, err = store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, status)

	other, err := store.Read(ctx, model.NewJobRunKey("100", 2))
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusNotStarted, other)
}

func TestSQLJobStatusStoreVersionIncrements(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	store := repsql.NewJobStatusStore(db)
	key := model.NewJobRunKey("v", 0)

	require.NoError(t, store.Write(ctx, key, model.JobStatusInitializing))
	require.NoError(t, store.Write(ctx, key, model.JobStatusRunning))

	var e repsql.JobStatusEntity
	require.NoError(t, db.Where("job_id = ? AND attempt_id = ?", "v", 0).Take(&e).Error)
	assert.Equal(t, 2, e.Version)
	assert.Equal(t, "RUNNING", e.Status)
}

func TestSQLJobStatusStoreReadFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `replication_job_status`").WillReturnError(errors.New("connection reset"))

	_, err = repsql.NewJobStatusStore(db).Read(context.Background(), model.NewJobRunKey("1", 0))

	assert.Error(t, err)
	assert.True(t, exception.IsFatal(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLJobStatusStoreGivesUpAfterLostRaces(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT \\* FROM `replication_job_status`").
			WillReturnRows(sqlmock.NewRows([]string{"job_id", "attempt_id", "status", "version"}).AddRow("1", 0, "INITIALIZING", i+1))
		mock.ExpectExec("UPDATE `replication_job_status`").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err = repsql.NewJobStatusStore(db).Write(context.Background(), model.NewJobRunKey("1", 0), model.JobStatusRunning)

	assert.ErrorIs(t, err, repsql.ErrConcurrentStatusUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLActorDefinitionRepository(t *testing.T) {
	ctx := context.Background()
	repo := repsql.NewActorDefinitionRepository(openSQLite(t))

	v := model.ActorDefinitionVersion{
		VersionID: uuid.New(), ActorDefinitionID: uuid.New(),
		DockerRepository: "syncwave/source-mysql", DockerImageTag: "3.1.0", ReleaseStage: model.ReleaseStageBeta,
	}
	def := model.ActorDefinition{DefinitionID: v.ActorDefinitionID, ActorType: model.ActorTypeSource, Name: "MySQL", DefaultVersionID: &v.VersionID}
	actor := model.Actor{ActorID: uuid.New(), ActorType: model.ActorTypeSource, WorkspaceID: uuid.New(), DefinitionID: def.DefinitionID, Name: "prod mysql"}

	require.NoError(t, repo.SaveActorDefinitionVersion(ctx, v))
	require.NoError(t, repo.SaveActorDefinition(ctx, def))
	require.NoError(t, repo.SaveActor(ctx, actor))

	gotV, err := repo.GetActorDefinitionVersion(ctx, v.VersionID)
	require.NoError(t, err)
	assert.Equal(t, v, *gotV)

	gotDef, err := repo.GetActorDefinition(ctx, def.DefinitionID)
	require.NoError(t, err)
	assert.Equal(t, def, *gotDef)

	gotActor, err := repo.GetActor(ctx, actor.ActorID)
	require.NoError(t, err)
	assert.Nil(t, gotActor.DefaultVersionID)
	assert.Equal(t, actor.WorkspaceID, gotActor.WorkspaceID)

	_, err = repo.GetActor(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrActorNotFound)
	_, err = repo.GetActorDefinitionVersion(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrVersionNotFound)
}
