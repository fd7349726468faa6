package featureflag

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

// NewClientFromConfig builds a StaticClient from the feature_flags section.
// Rule ids must be UUIDs; they are normalized so they match Workspace and Connection keys.
func NewClientFromConfig(cfg *config.Config) (*StaticClient, error) {
	flags := cfg.Syncwave.FeatureFlags
	client := NewStaticClient(flags.Values)
	for i, r := range flags.Rules {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, exception.NewConfigError("FeatureFlags", fmt.Sprintf("rules[%d]: invalid id %q", i, r.ID), err)
		}
		client.AddRule(r.Flag, Rule{Kind: ContextKind(r.Scope), Key: id.String(), Value: r.Value})
	}
	return client, nil
}

// Module provides the configured flag Client.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewClientFromConfig, fx.As(new(Client)))),
)
