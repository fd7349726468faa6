// Package catalog holds the pure catalog transforms of the replication core:
// rewriting a catalog for a reset, selecting streams to backfill after a schema
// change, and rendering a schema diff as a human-readable summary.
package catalog

import (
	"sort"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

// StreamSet is a set of stream identities.
type StreamSet map[model.StreamDescriptor]struct{}

// NewStreamSet creates a StreamSet holding streams.
func NewStreamSet(streams ...model.StreamDescriptor) StreamSet {
	s := make(StreamSet, len(streams))
	for _, d := range streams {
		s[d] = struct{}{}
	}
	return s
}

// Contains reports whether d is in the set.
func (s StreamSet) Contains(d model.StreamDescriptor) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the members ordered by their "namespace.name" rendering.
func (s StreamSet) Sorted() []model.StreamDescriptor {
	out := make([]model.StreamDescriptor, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return lessDescriptor(out[i], out[j]) })
	return out
}

// UpdateCatalogForReset rewrites catalog in place for a reset of streamsToReset.
//
// Streams being reset are forced to full_refresh/overwrite. Every other stream that
// currently overwrites is downgraded to append so its destination data survives;
// streams in any other destination mode are left untouched. Streams to reset that
// are not in the catalog are ignored. Applying the rewrite twice with the same set
// gives the same catalog as applying it once.
func UpdateCatalogForReset(streamsToReset StreamSet, catalog *model.ConfiguredCatalog) {
	if catalog == nil {
		return
	}
	for _, s := range catalog.Streams {
		if streamsToReset.Contains(s.Stream) {
			s.SyncMode = model.SyncModeFullRefresh
			s.DestinationSyncMode = model.DestinationSyncModeOverwrite
			continue
		}
		if s.DestinationSyncMode == model.DestinationSyncModeOverwrite {
			s.DestinationSyncMode = model.DestinationSyncModeAppend
		}
	}
}

func lessDescriptor(a, b model.StreamDescriptor) bool {
	as, bs := a.String(), b.String()
	if as != bs {
		return as < bs
	}
	// "a.b" with no namespace and {a, b} render alike; namespace breaks the tie.
	return a.Namespace < b.Namespace
}
