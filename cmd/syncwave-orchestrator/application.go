package main

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/engine/orchestrator"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/repository/jobstatus"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/runner"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/workload"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// RunApplication builds the fx container for the configured job kind, runs the job
// once and stops the container. The job's error, if any, is returned.
func RunApplication(appCtx context.Context, envFilePath, configFilePath string, embedded []byte) error {
	// Loaded before the container is built: the workload module is only installed when enabled.
	cfg, err := config.NewConfigProvider(config.ConfigParams{
		EmbeddedConfig: embedded,
		EnvFilePath:    envFilePath,
		ConfigFilePath: configFilePath,
	})
	if err != nil {
		return err
	}

	jobDone := make(chan error, 1)
	started := false
	options := []fx.Option{
		fx.Supply(cfg),
		logger.Module,
		config.Module,
		metrics.Module,
		jobstatus.Module,
		runner.Module,
		orchestrator.Module,
		fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, job *orchestrator.App) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					started = true
					go func() {
						defer func() {
							if r := recover(); r != nil {
								logger.Errorf("Panic recovered in job execution: %v", r)
								jobDone <- fmt.Errorf("panic in job execution: %v", r)
							}
							if err := shutdowner.Shutdown(); err != nil {
								logger.Errorf("Failed to shutdown application: %v", err)
							}
						}()
						jobDone <- job.Run(appCtx)
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					logger.Infof("Orchestrator stopped.")
					return nil
				},
			})
		}),
	}
	if cfg.Syncwave.Replication.WorkloadEnabled {
		logger.Infof("Workload backend enabled; status will be reported to %s.", cfg.Syncwave.WorkloadAPI.BaseURL)
		options = append(options, workload.Module)
	}

	app := fx.New(options...)
	app.Run()
	if err := app.Err(); err != nil {
		return err
	}
	if !started {
		return nil
	}
	// A signal stops the container before the job returns; the job sees appCtx cancelled.
	return <-jobDone
}
