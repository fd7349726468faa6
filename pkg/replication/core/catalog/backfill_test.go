package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/syncwave/pkg/replication/core/catalog"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

func TestStreamsToBackfill(t *testing.T) {
	c := &model.ConfiguredCatalog{Streams: []*model.ConfiguredStream{
		stream("main", "users", model.SyncModeIncremental, model.DestinationSyncModeAppendDedup),
		stream("main", "orders", model.SyncModeIncremental, model.DestinationSyncModeAppend),
		stream("main", "snapshots", model.SyncModeFullRefresh, model.DestinationSyncModeOverwrite),
	}}
	diff := &model.CatalogDiff{Transforms: []model.StreamTransform{
		updateStream("main", "users", field(model.FieldTransformAddField, "email"), field(model.FieldTransformRemoveField, "mail")),
		updateStream("main", "orders", field(model.FieldTransformRemoveField, "legacy"), field(model.FieldTransformUpdateFieldSchema, "total")),
		updateStream("main", "snapshots", field(model.FieldTransformAddField, "taken_by")),
		updateStream("main", "unknown", field(model.FieldTransformAddField, "x")),
		addStream("main", "brand_new"),
	}}

	got := catalog.StreamsToBackfill(diff, c)

	assert.Equal(t, []model.StreamDescriptor{{Name: "users", Namespace: "main"}}, got.Sorted())
}

func TestStreamsToBackfillWithoutDiff(t *testing.T) {
	c := &model.ConfiguredCatalog{Streams: []*model.ConfiguredStream{
		stream("", "users", model.SyncModeIncremental, model.DestinationSyncModeAppend),
	}}
	assert.Empty(t, catalog.StreamsToBackfill(nil, c))
	assert.Empty(t, catalog.StreamsToBackfill(&model.CatalogDiff{}, c))
}

func TestMarkBackfilledStreams(t *testing.T) {
	out := &model.StandardSyncOutput{StandardSyncSummary: model.StandardSyncSummary{
		StreamStats: []model.StreamSyncStats{
			{StreamName: "users", StreamNamespace: "main"},
			{StreamName: "orders", StreamNamespace: "main"},
		},
	}}

	catalog.MarkBackfilledStreams(catalog.NewStreamSet(model.StreamDescriptor{Name: "users", Namespace: "main"}), out)

	assert.True(t, out.StandardSyncSummary.StreamStats[0].WasBackfilled)
	assert.False(t, out.StandardSyncSummary.StreamStats[1].WasBackfilled)
	assert.NotPanics(t, func() { catalog.MarkBackfilledStreams(catalog.NewStreamSet(), nil) })
}
