package catalog

import "github.com/tigerroll/syncwave/pkg/replication/core/domain/model"

// StreamsToBackfill returns the streams whose applied schema change added at least
// one field and that sync incrementally, so previously synced records lack the new
// fields. Streams changed only by removals or type changes do not qualify.
func StreamsToBackfill(appliedDiff *model.CatalogDiff, catalog *model.ConfiguredCatalog) StreamSet {
	out := StreamSet{}
	if appliedDiff.IsEmpty() || catalog == nil {
		return out
	}
	for _, t := range appliedDiff.Transforms {
		if t.TransformType != model.StreamTransformUpdateStream || !addsField(t.UpdateStream) {
			continue
		}
		stream := catalog.Find(t.StreamDescriptor)
		if stream != nil && stream.SyncMode == model.SyncModeIncremental {
			out[t.StreamDescriptor] = struct{}{}
		}
	}
	return out
}

func addsField(transforms []model.FieldTransform) bool {
	for _, f := range transforms {
		if f.TransformType == model.FieldTransformAddField {
			return true
		}
	}
	return false
}

// MarkBackfilledStreams flags the per-stream stats of the backfilled streams in output.
func MarkBackfilledStreams(streams StreamSet, output *model.StandardSyncOutput) {
	if output == nil || len(streams) == 0 {
		return
	}
	stats := output.StandardSyncSummary.StreamStats
	for i := range stats {
		if streams.Contains(stats[i].Descriptor()) {
			stats[i].WasBackfilled = true
		}
	}
}
