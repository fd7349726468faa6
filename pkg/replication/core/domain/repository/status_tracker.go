package repository

import (
	"context"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

// StatusTracker binds a JobStatusStore to the key of one job run.
type StatusTracker struct {
	store JobStatusStore
	key   model.JobRunKey
}

// NewStatusTracker creates a StatusTracker for key.
func NewStatusTracker(store JobStatusStore, key model.JobRunKey) *StatusTracker {
	return &StatusTracker{store: store, key: key}
}

// Key returns the tracked key.
func (t *StatusTracker) Key() model.JobRunKey { return t.key }

// Current returns the stored status.
func (t *StatusTracker) Current(ctx context.Context) (model.JobStatus, error) {
	return t.store.Read(ctx, t.key)
}

func (t *StatusTracker) MarkInitializing(ctx context.Context) error {
	return t.store.Write(ctx, t.key, model.JobStatusInitializing)
}

func (t *StatusTracker) MarkRunning(ctx context.Context) error {
	return t.store.Write(ctx, t.key, model.JobStatusRunning)
}

func (t *StatusTracker) MarkSucceeded(ctx context.Context) error {
	return t.store.Write(ctx, t.key, model.JobStatusSucceeded)
}

func (t *StatusTracker) MarkFailed(ctx context.Context) error {
	return t.store.Write(ctx, t.key, model.JobStatusFailed)
}

// LaunchOnce runs launch only if the key has not reached INITIALIZING yet.
// It marks the key INITIALIZING before launching. The boolean result reports
// whether launch was invoked; re-invoking for the same key is a no-op.
// The caller must be the single writer of the key.
func (t *StatusTracker) LaunchOnce(ctx context.Context, launch func(ctx context.Context) error) (bool, error) {
	current, err := t.store.Read(ctx, t.key)
	if err != nil {
		return false, err
	}
	if current.Rank() >= model.JobStatusInitializing.Rank() {
		return false, nil
	}
	if err := t.store.Write(ctx, t.key, model.JobStatusInitializing); err != nil {
		return false, err
	}
	if err := launch(ctx); err != nil {
		return true, err
	}
	return true, nil
}
