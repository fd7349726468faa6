package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// DefaultRefreshMaxAge is how old the last catalog fetch may be before a refresh is due.
const DefaultRefreshMaxAge = 24 * time.Hour

// RefreshSchemaActivity rediscovers a source's schema before a sync when the last
// discovery is stale.
type RefreshSchemaActivity struct {
	sources port.SourceAPI
	flags   featureflag.Client
	maxAge  time.Duration
	now     func() time.Time
}

// NewRefreshSchemaActivity creates a RefreshSchemaActivity.
func NewRefreshSchemaActivity(sources port.SourceAPI, flags featureflag.Client, maxAge time.Duration) *RefreshSchemaActivity {
	if maxAge <= 0 {
		maxAge = DefaultRefreshMaxAge
	}
	return &RefreshSchemaActivity{sources: sources, flags: flags, maxAge: maxAge, now: time.Now}
}

// NewRefreshSchemaActivityFromConfig uses replication.refresh_schema_max_age_hours.
func NewRefreshSchemaActivityFromConfig(cfg *config.Config, sources port.SourceAPI, flags featureflag.Client) *RefreshSchemaActivity {
	return NewRefreshSchemaActivity(sources, flags, time.Duration(cfg.Syncwave.Replication.RefreshSchemaMaxAgeHours)*time.Hour)
}

// ShouldRefreshSchema reports whether the source was never discovered or was
// last discovered longer ago than the max age.
func (a *RefreshSchemaActivity) ShouldRefreshSchema(ctx context.Context, sourceID uuid.UUID) (bool, error) {
	last, err := a.sources.MostRecentCatalogFetch(ctx, sourceID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return last.Before(a.now().Add(-a.maxAge)), nil
}

// RefreshSchema rediscovers the source with caching disabled and change
// notification enabled. It does nothing when schema refresh is disabled for the
// connection, in which case the result is nil.
func (a *RefreshSchemaActivity) RefreshSchema(ctx context.Context, sourceID, connectionID uuid.UUID) (*model.RefreshSchemaOutput, error) {
	if !a.flags.BoolVariation(featureflag.ShouldRunRefreshSchema, featureflag.Connection(connectionID)) {
		logger.Debugf("RefreshSchemaActivity: schema refresh disabled for connection %s.", connectionID)
		return nil, nil
	}
	diff, err := a.sources.DiscoverSchema(ctx, port.DiscoverSchemaRequest{
		SourceID:           sourceID,
		ConnectionID:       connectionID,
		DisableCache:       true,
		NotifySchemaChange: true,
	})
	if err != nil {
		return nil, err
	}
	return &model.RefreshSchemaOutput{AppliedDiff: diff}, nil
}
