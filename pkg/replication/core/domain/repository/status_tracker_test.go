package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error {
	return m.Called(ctx, key, status).Error(0)
}

func (m *mockStore) Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.JobStatus), args.Error(1)
}

func TestLaunchOnceLaunchesFromNotStarted(t *testing.T) {
	ctx := context.Background()
	key := model.NewJobRunKey("1", 0)
	store := new(mockStore)
	store.On("Read", ctx, key).Return(model.JobStatusNotStarted, nil)
	store.On("Write", ctx, key, model.JobStatusInitializing).Return(nil)

	launches := 0
	launched, err := repository.NewStatusTracker(store, key).LaunchOnce(ctx, func(context.Context) error {
		launches++
		return nil
	})

	require.NoError(t, err)
	assert.True(t, launched)
	assert.Equal(t, 1, launches)
	store.AssertExpectations(t)
}

func TestLaunchOnceSkipsWhenAlreadyUnderway(t *testing.T) {
	for _, status := range []model.JobStatus{model.JobStatusInitializing, model.JobStatusRunning, model.JobStatusSucceeded} {
		ctx := context.Background()
		key := model.NewJobRunKey("1", 0)
		store := new(mockStore)
		store.On("Read", ctx, key).Return(status, nil)

		launched, err := repository.NewStatusTracker(store, key).LaunchOnce(ctx, func(context.Context) error {
			t.Fatalf("launch must not run when status is %s", status)
			return nil
		})

		require.NoError(t, err)
		assert.False(t, launched)
		store.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestLaunchOnceReportsLaunchFailure(t *testing.T) {
	ctx := context.Background()
	key := model.NewJobRunKey("1", 0)
	store := new(mockStore)
	store.On("Read", ctx, key).Return(model.JobStatusNotStarted, nil)
	store.On("Write", ctx, key, model.JobStatusInitializing).Return(nil)
	boom := errors.New("pod rejected")

	launched, err := repository.NewStatusTracker(store, key).LaunchOnce(ctx, func(context.Context) error { return boom })

	assert.True(t, launched)
	assert.ErrorIs(t, err, boom)
}

func TestMarkHelpersWriteTargetStatus(t *testing.T) {
	ctx := context.Background()
	key := model.NewJobRunKey("2", 1)
	store := new(mockStore)
	store.On("Write", ctx, key, model.JobStatusInitializing).Return(nil).Once()
	store.On("Write", ctx, key, model.JobStatusRunning).Return(nil).Once()
	store.On("Write", ctx, key, model.JobStatusSucceeded).Return(nil).Once()
	store.On("Write", ctx, key, model.JobStatusFailed).Return(nil).Once()

	tracker := repository.NewStatusTracker(store, key)
	require.NoError(t, tracker.MarkInitializing(ctx))
	require.NoError(t, tracker.MarkRunning(ctx))
	require.NoError(t, tracker.MarkSucceeded(ctx))
	require.NoError(t, tracker.MarkFailed(ctx))
	assert.Equal(t, key, tracker.Key())
	store.AssertExpectations(t)
}
