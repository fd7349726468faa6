package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/activity"
	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
)

type mockSourceAPI struct{ mock.Mock }

func (m *mockSourceAPI) DiscoverSchema(_ context.Context, req port.DiscoverSchemaRequest) (*model.CatalogDiff, error) {
	args := m.Called(req)
	diff, _ := args.Get(0).(*model.CatalogDiff)
	return diff, args.Error(1)
}

func (m *mockSourceAPI) MostRecentCatalogFetch(_ context.Context, sourceID uuid.UUID) (*time.Time, error) {
	args := m.Called(sourceID)
	ts, _ := args.Get(0).(*time.Time)
	return ts, args.Error(1)
}

func hoursAgo(h int) *time.Time {
	ts := time.Now().Add(-time.Duration(h) * time.Hour)
	return &ts
}

func TestShouldRefreshSchema(t *testing.T) {
	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"never discovered", nil, true},
		{"discovered two days ago", hoursAgo(48), true},
		{"discovered twelve hours ago", hoursAgo(12), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sourceID := uuid.New()
			sources := &mockSourceAPI{}
			sources.On("MostRecentCatalogFetch", sourceID).Return(tt.last, nil)

			got, err := activity.NewRefreshSchemaActivity(sources, featureflag.NewStaticClient(nil), 0).ShouldRefreshSchema(context.Background(), sourceID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefreshSchema(t *testing.T) {
	sourceID, connectionID := uuid.New(), uuid.New()
	diff := &model.CatalogDiff{Transforms: []model.StreamTransform{{TransformType: model.StreamTransformAddStream, StreamDescriptor: usersStream}}}
	sources := &mockSourceAPI{}
	sources.On("DiscoverSchema", port.DiscoverSchemaRequest{
		SourceID:           sourceID,
		ConnectionID:       connectionID,
		DisableCache:       true,
		NotifySchemaChange: true,
	}).Return(diff, nil).Once()

	out, err := activity.NewRefreshSchemaActivity(sources, featureflag.NewStaticClient(nil), 0).RefreshSchema(context.Background(), sourceID, connectionID)
	require.NoError(t, err)
	assert.Same(t, diff, out.AppliedDiff)
	sources.AssertExpectations(t)
}

func TestRefreshSchema_DisabledForConnection(t *testing.T) {
	sourceID, connectionID := uuid.New(), uuid.New()
	flags := featureflag.NewStaticClient(nil)
	flags.AddRule(featureflag.ShouldRunRefreshSchema.Key, featureflag.Rule{
		Kind: featureflag.KindConnection, Key: connectionID.String(), Value: false,
	})
	sources := &mockSourceAPI{}

	out, err := activity.NewRefreshSchemaActivity(sources, flags, 0).RefreshSchema(context.Background(), sourceID, connectionID)
	require.NoError(t, err)
	assert.Nil(t, out)
	sources.AssertNotCalled(t, "DiscoverSchema", mock.Anything)
}
