package gorm_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/tigerroll/syncwave/pkg/replication/adapter/database/config"
	gormadapter "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm"
	"github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm/mysql"
	"github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm/postgres"
	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm/sqlite"
)

func TestProvider_OpensSQLiteConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.db")
	p := gormadapter.NewProvider(map[string]interface{}{
		"metadata": map[string]interface{}{
			"type":     "sqlite",
			"database": path,
			"pool":     map[string]interface{}{"max_open_conns": "1"},
		},
	})

	conn, err := p.GetConnection("metadata")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", conn.Type())
	assert.Equal(t, "metadata", conn.Name())
	assert.Equal(t, 1, conn.Config().Pool.MaxOpenConns)
	require.NoError(t, conn.DB().Exec("SELECT 1").Error)

	again, err := p.GetConnection("metadata")
	require.NoError(t, err)
	assert.Same(t, conn, again)

	require.NoError(t, p.CloseAll())
}

func TestProvider_Errors(t *testing.T) {
	p := gormadapter.NewProvider(map[string]interface{}{
		"oracle":    map[string]interface{}{"type": "oracle"},
		"sqlite":    map[string]interface{}{"type": "sqlite"},
		"not-a-map": 42,
	})

	_, err := p.GetConnection("missing")
	assert.ErrorContains(t, err, "not found")

	_, err = p.GetConnection("oracle")
	assert.ErrorContains(t, err, "no dialector registered for database type 'oracle'")

	_, err = p.GetConnection("sqlite")
	assert.ErrorContains(t, err, "path cannot be empty")

	_, err = p.GetConnection("not-a-map")
	assert.Error(t, err)
}

func TestDSNs(t *testing.T) {
	cfg := dbconfig.DatabaseConfig{Host: "db", Port: 5432, User: "sync", Password: "pw", Database: "syncwave"}
	assert.Equal(t, "host=db port=5432 user=sync password=pw dbname=syncwave sslmode=disable", postgres.DSN(cfg))

	cfg.Port = 3306
	assert.Equal(t, "sync:pw@tcp(db:3306)/syncwave?charset=utf8mb4&parseTime=True&loc=UTC", mysql.DSN(cfg))
}
