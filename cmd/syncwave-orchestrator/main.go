package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm/mysql"
	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm/postgres"
	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/database/gorm/sqlite"
	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/gcs"
	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/local"
	_ "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/s3"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// embeddedConfig is the default configuration, overridden by CONFIG_FILE_PATH and
// by environment variables.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// main runs one orchestrator job inside a job container and exits with a non-zero
// code when the job fails.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Cancelling the running job...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	if err := RunApplication(ctx, envFilePath, os.Getenv("CONFIG_FILE_PATH"), embeddedConfig); err != nil {
		logger.Errorf("Orchestrator failed: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}
