package orchestrator

import (
	"context"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// statusWriteTimeout bounds the terminal status write once the run context is done.
const statusWriteTimeout = 30 * time.Second

// App is the entry point of an orchestrator container. It launches the selected
// orchestrator at most once per job attempt and records the outcome.
type App struct {
	files        *InputFiles
	store        repository.JobStatusStore
	orchestrator JobOrchestrator
}

// NewApp creates an App.
func NewApp(files *InputFiles, store repository.JobStatusStore, orchestrator JobOrchestrator) *App {
	return &App{files: files, store: store, orchestrator: orchestrator}
}

// Run marks the attempt INITIALIZING and runs the orchestrator, unless the attempt
// was already launched. The attempt ends SUCCEEDED or FAILED.
func (a *App) Run(ctx context.Context) error {
	run, err := a.files.JobRunConfig()
	if err != nil {
		return err
	}
	log := logger.ForAttempt(run.JobID, run.AttemptID)

	launched, err := launchAttempt(ctx, a.store, run.Key(), log, func(ctx context.Context) error {
		log.Infof("App: starting %s orchestrator (input %s).", a.orchestrator.Name(), a.orchestrator.InputType())
		output, err := a.orchestrator.RunJob(ctx)
		if err == nil && output != nil {
			err = a.files.WriteOutput(*output)
		}
		return err
	})
	if err != nil {
		return err
	}
	if !launched {
		log.Warnf("App: attempt was already launched; nothing to do.")
		return nil
	}
	log.Infof("App: attempt succeeded.")
	return nil
}

// launchAttempt runs launch at most once for key and records the terminal status:
// FAILED when launch returns an error, SUCCEEDED otherwise. The terminal write
// outlives a cancelled ctx. The boolean result reports whether launch was invoked.
func launchAttempt(ctx context.Context, store repository.JobStatusStore, key model.JobRunKey, log *logger.AttemptLogger, launch func(ctx context.Context) error) (bool, error) {
	tracker := repository.NewStatusTracker(store, key)
	return tracker.LaunchOnce(ctx, func(ctx context.Context) error {
		runErr := launch(ctx)

		markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
		defer cancel()
		if runErr != nil {
			log.Errorf("Orchestrator: attempt failed: %v", runErr)
			if err := tracker.MarkFailed(markCtx); err != nil {
				log.Errorf("Orchestrator: failed to mark the attempt FAILED: %v", err)
			}
			return runErr
		}
		return tracker.MarkSucceeded(markCtx)
	})
}
