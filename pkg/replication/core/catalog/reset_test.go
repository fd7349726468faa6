package catalog_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/syncwave/pkg/replication/core/catalog"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

var destinationModes = []model.DestinationSyncMode{
	model.DestinationSyncModeAppend,
	model.DestinationSyncModeOverwrite,
	model.DestinationSyncModeAppendDedup,
}

var syncModes = []model.SyncMode{model.SyncModeFullRefresh, model.SyncModeIncremental}

func stream(namespace, name string, sm model.SyncMode, dm model.DestinationSyncMode) *model.ConfiguredStream {
	return &model.ConfiguredStream{
		Stream:              model.StreamDescriptor{Name: name, Namespace: namespace},
		SyncMode:            sm,
		DestinationSyncMode: dm,
	}
}

func TestUpdateCatalogForReset(t *testing.T) {
	c := &model.ConfiguredCatalog{Streams: []*model.ConfiguredStream{
		stream("public", "users", model.SyncModeIncremental, model.DestinationSyncModeAppendDedup),
		stream("public", "orders", model.SyncModeFullRefresh, model.DestinationSyncModeOverwrite),
		stream("", "events", model.SyncModeIncremental, model.DestinationSyncModeAppend),
		stream("", "audit", model.SyncModeIncremental, model.DestinationSyncModeAppendDedup),
	}}
	reset := catalog.NewStreamSet(
		model.StreamDescriptor{Name: "users", Namespace: "public"},
		model.StreamDescriptor{Name: "ghost"},
	)

	catalog.UpdateCatalogForReset(reset, c)

	assert.Equal(t, model.SyncModeFullRefresh, c.Streams[0].SyncMode)
	assert.Equal(t, model.DestinationSyncModeOverwrite, c.Streams[0].DestinationSyncMode)
	assert.Equal(t, model.SyncModeFullRefresh, c.Streams[1].SyncMode)
	assert.Equal(t, model.DestinationSyncModeAppend, c.Streams[1].DestinationSyncMode)
	assert.Equal(t, model.DestinationSyncModeAppend, c.Streams[2].DestinationSyncMode)
	assert.Equal(t, model.DestinationSyncModeAppendDedup, c.Streams[3].DestinationSyncMode)
	assert.Len(t, c.Streams, 4)
}

func TestUpdateCatalogForResetNilCatalog(t *testing.T) {
	assert.NotPanics(t, func() { catalog.UpdateCatalogForReset(catalog.NewStreamSet(), nil) })
}

// genCatalog builds a catalog with unique stream names and a reset set drawn from it plus unknown streams.
func genCatalog(n int, modes []int, resetMask []bool) (*model.ConfiguredCatalog, catalog.StreamSet) {
	c := &model.ConfiguredCatalog{}
	reset := catalog.NewStreamSet(model.StreamDescriptor{Name: "not_in_catalog"})
	for i := 0; i < n; i++ {
		m := modes[i%len(modes)]
		s := stream("", fmt.Sprintf("s%d", i), syncModes[m%len(syncModes)], destinationModes[m%len(destinationModes)])
		c.Streams = append(c.Streams, s)
		if resetMask[i%len(resetMask)] {
			reset[s.Stream] = struct{}{}
		}
	}
	return c, reset
}

func TestUpdateCatalogForResetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("rewrite is idempotent", prop.ForAll(
		func(n int, modes []int, resetMask []bool) bool {
			c, reset := genCatalog(n, modes, resetMask)
			catalog.UpdateCatalogForReset(reset, c)
			once := c.Clone()
			catalog.UpdateCatalogForReset(reset, c)
			return assert.ObjectsAreEqual(once, c)
		},
		gen.IntRange(0, 20),
		gen.SliceOfN(5, gen.IntRange(0, 5)),
		gen.SliceOfN(3, gen.Bool()),
	))

	properties.Property("streams neither reset nor overwriting are untouched", prop.ForAll(
		func(n int, modes []int, resetMask []bool) bool {
			c, reset := genCatalog(n, modes, resetMask)
			before := c.Clone()
			catalog.UpdateCatalogForReset(reset, c)
			for i, s := range before.Streams {
				if reset.Contains(s.Stream) || s.DestinationSyncMode == model.DestinationSyncModeOverwrite {
					continue
				}
				if !assert.ObjectsAreEqual(s, c.Streams[i]) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.SliceOfN(5, gen.IntRange(0, 5)),
		gen.SliceOfN(3, gen.Bool()),
	))

	properties.TestingRun(t)
}
