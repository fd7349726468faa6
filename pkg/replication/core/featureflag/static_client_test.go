package featureflag_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

func TestStaticClientPrecedence(t *testing.T) {
	ws := uuid.New()
	other := uuid.New()
	flag := featureflag.Flag{Key: "test.flag", Default: false}

	client := featureflag.NewStaticClient(nil)
	assert.False(t, client.BoolVariation(flag, featureflag.Workspace(ws)))

	client.Set(flag.Key, true)
	assert.True(t, client.BoolVariation(flag, featureflag.Workspace(ws)))

	client.AddRule(flag.Key, featureflag.Rule{Kind: featureflag.KindWorkspace, Key: ws.String(), Value: false})
	assert.False(t, client.BoolVariation(flag, featureflag.Workspace(ws)))
	assert.True(t, client.BoolVariation(flag, featureflag.Workspace(other)))
}

func TestStaticClientMultiContextMatchesAnyPart(t *testing.T) {
	ws := uuid.New()
	conn := uuid.New()
	client := featureflag.NewStaticClient(map[string]bool{featureflag.UseWorkloadAPI.Key: false})
	client.AddRule(featureflag.UseWorkloadAPI.Key, featureflag.Rule{Kind: featureflag.KindConnection, Key: conn.String(), Value: true})

	ctx := featureflag.Multi{featureflag.Workspace(ws), featureflag.Connection(conn)}

	assert.True(t, client.BoolVariation(featureflag.UseWorkloadAPI, ctx))
	assert.False(t, client.BoolVariation(featureflag.UseWorkloadAPI, featureflag.Workspace(ws)))
}

func TestMultiKeyIsOrderIndependent(t *testing.T) {
	ws, conn := uuid.New(), uuid.New()
	a := featureflag.Multi{featureflag.Workspace(ws), featureflag.Connection(conn)}
	b := featureflag.Multi{featureflag.Connection(conn), featureflag.Workspace(ws)}
	assert.Equal(t, a.Key(), b.Key())
}

func TestDefaultsWhenUnset(t *testing.T) {
	client := featureflag.NewStaticClient(nil)
	ws := featureflag.Workspace(uuid.New())
	assert.True(t, client.BoolVariation(featureflag.UseActorScopedDefaultVersions, ws))
	assert.False(t, client.BoolVariation(featureflag.RemoveLargeSyncInputs, ws))
}

func TestNewClientFromConfig(t *testing.T) {
	ws := uuid.MustParse("5AE6B09B-FDEC-41AF-AAF7-7D94CFC33EF6")
	cfg := config.NewConfig()
	cfg.Syncwave.FeatureFlags.Values["platform.use-workload-api"] = false
	cfg.Syncwave.FeatureFlags.Rules = []config.FeatureFlagRule{
		{Flag: "platform.use-workload-api", Scope: "workspace", ID: "5AE6B09B-FDEC-41AF-AAF7-7D94CFC33EF6", Value: true},
	}

	client, err := featureflag.NewClientFromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, client.BoolVariation(featureflag.UseWorkloadAPI, featureflag.Workspace(ws)))
	assert.False(t, client.BoolVariation(featureflag.UseWorkloadAPI, featureflag.Workspace(uuid.New())))

	cfg.Syncwave.FeatureFlags.Rules[0].ID = "not-a-uuid"
	_, err = featureflag.NewClientFromConfig(cfg)
	assert.True(t, errors.Is(err, exception.ErrConfig))
}
