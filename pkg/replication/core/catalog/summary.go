package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

type streamChange struct {
	stream model.StreamDescriptor
	added  bool
}

type fieldChange struct {
	path string
	kind model.FieldTransformType
}

type updatedStream struct {
	stream model.StreamDescriptor
	fields []fieldChange
}

// BuildSummary renders diff as a nested bullet list:
//
//	BuildSummary(diff) =
//	* Streams (+1/-1)
//	  * + ns.added
//	  * - removed
//	* Fields (+1/~1/-1)
//	  * ~ ns.updated
//	    * + new.field
//	    * - old_field
//	    * ~ retyped
//
// Stream bullets are ordered by "namespace.name" regardless of type. Field bullets
// list additions, then removals, then schema updates, each sorted by dotted path.
// A section is omitted when it has no entries, and an empty diff renders as "".
// The result depends only on the set of transforms, not on their order in diff.
func BuildSummary(diff *model.CatalogDiff) string {
	if diff.IsEmpty() {
		return ""
	}

	var streams []streamChange
	updates := map[model.StreamDescriptor]*updatedStream{}
	for _, t := range diff.Transforms {
		switch t.TransformType {
		case model.StreamTransformAddStream:
			streams = append(streams, streamChange{stream: t.StreamDescriptor, added: true})
		case model.StreamTransformRemoveStream:
			streams = append(streams, streamChange{stream: t.StreamDescriptor})
		case model.StreamTransformUpdateStream:
			u, ok := updates[t.StreamDescriptor]
			if !ok {
				u = &updatedStream{stream: t.StreamDescriptor}
				updates[t.StreamDescriptor] = u
			}
			for _, f := range t.UpdateStream {
				u.fields = append(u.fields, fieldChange{path: strings.Join(f.FieldName, "."), kind: f.TransformType})
			}
		}
	}

	var sb strings.Builder
	writeStreamSection(&sb, streams)
	writeFieldSection(&sb, updates)
	return sb.String()
}

func writeStreamSection(sb *strings.Builder, streams []streamChange) {
	if len(streams) == 0 {
		return
	}
	added, removed := 0, 0
	for _, s := range streams {
		if s.added {
			added++
		} else {
			removed++
		}
	}
	sort.Slice(streams, func(i, j int) bool {
		a, b := streams[i], streams[j]
		if a.stream != b.stream {
			return lessDescriptor(a.stream, b.stream)
		}
		return a.added && !b.added
	})

	fmt.Fprintf(sb, "* Streams (+%d/-%d)\n", added, removed)
	for _, s := range streams {
		sign := "-"
		if s.added {
			sign = "+"
		}
		fmt.Fprintf(sb, "  * %s %s\n", sign, s.stream)
	}
}

func writeFieldSection(sb *strings.Builder, updates map[model.StreamDescriptor]*updatedStream) {
	if len(updates) == 0 {
		return
	}
	ordered := make([]*updatedStream, 0, len(updates))
	added, updated, removed := 0, 0, 0
	for _, u := range updates {
		ordered = append(ordered, u)
		for _, f := range u.fields {
			switch f.kind {
			case model.FieldTransformAddField:
				added++
			case model.FieldTransformRemoveField:
				removed++
			case model.FieldTransformUpdateFieldSchema:
				updated++
			}
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return lessDescriptor(ordered[i].stream, ordered[j].stream) })

	fmt.Fprintf(sb, "* Fields (+%d/~%d/-%d)\n", added, updated, removed)
	for _, u := range ordered {
		fmt.Fprintf(sb, "  * ~ %s\n", u.stream)
		fields := append([]fieldChange(nil), u.fields...)
		sort.Slice(fields, func(i, j int) bool {
			if ri, rj := fieldRank(fields[i].kind), fieldRank(fields[j].kind); ri != rj {
				return ri < rj
			}
			return fields[i].path < fields[j].path
		})
		for _, f := range fields {
			if sign, ok := fieldSign(f.kind); ok {
				fmt.Fprintf(sb, "    * %s %s\n", sign, f.path)
			}
		}
	}
}

func fieldRank(k model.FieldTransformType) int {
	switch k {
	case model.FieldTransformAddField:
		return 0
	case model.FieldTransformRemoveField:
		return 1
	case model.FieldTransformUpdateFieldSchema:
		return 2
	}
	return 3
}

func fieldSign(k model.FieldTransformType) (string, bool) {
	switch k {
	case model.FieldTransformAddField:
		return "+", true
	case model.FieldTransformRemoveField:
		return "-", true
	case model.FieldTransformUpdateFieldSchema:
		return "~", true
	}
	return "", false
}
