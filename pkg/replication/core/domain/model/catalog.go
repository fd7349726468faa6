package model

import "encoding/json"

// SyncMode controls how a source reads a stream.
type SyncMode string

const (
	SyncModeFullRefresh SyncMode = "full_refresh"
	SyncModeIncremental SyncMode = "incremental"
)

// DestinationSyncMode controls how a destination writes a stream.
type DestinationSyncMode string

const (
	DestinationSyncModeAppend      DestinationSyncMode = "append"
	DestinationSyncModeOverwrite   DestinationSyncMode = "overwrite"
	DestinationSyncModeAppendDedup DestinationSyncMode = "append_dedup"
)

// StreamDescriptor identifies a stream. Namespace is optional.
type StreamDescriptor struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// String returns "namespace.name", or the bare name when there is no namespace.
func (d StreamDescriptor) String() string {
	if d.Namespace == "" {
		return d.Name
	}
	return d.Namespace + "." + d.Name
}

// ConfiguredStream is one stream of a configured catalog.
type ConfiguredStream struct {
	Stream              StreamDescriptor    `json:"stream"`
	SyncMode            SyncMode            `json:"syncMode"`
	DestinationSyncMode DestinationSyncMode `json:"destinationSyncMode"`
	CursorField         []string            `json:"cursorField,omitempty"`
	PrimaryKey          [][]string          `json:"primaryKey,omitempty"`
	JSONSchema          json.RawMessage     `json:"jsonSchema,omitempty"`
}

// ConfiguredCatalog is the set of streams a connection syncs. Stream identities are unique.
type ConfiguredCatalog struct {
	Streams []*ConfiguredStream `json:"streams"`
}

// Find returns the stream with the given identity, or nil.
func (c *ConfiguredCatalog) Find(d StreamDescriptor) *ConfiguredStream {
	if c == nil {
		return nil
	}
	for _, s := range c.Streams {
		if s.Stream == d {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy of the catalog's stream settings.
func (c *ConfiguredCatalog) Clone() *ConfiguredCatalog {
	if c == nil {
		return nil
	}
	out := &ConfiguredCatalog{}
	for _, s := range c.Streams {
		cp := *s
		cp.CursorField = append([]string(nil), s.CursorField...)
		if s.PrimaryKey != nil {
			cp.PrimaryKey = make([][]string, len(s.PrimaryKey))
			for i, pk := range s.PrimaryKey {
				cp.PrimaryKey[i] = append([]string(nil), pk...)
			}
		}
		cp.JSONSchema = append(json.RawMessage(nil), s.JSONSchema...)
		out.Streams = append(out.Streams, &cp)
	}
	return out
}

// StreamTransformType is the kind of a stream-level schema change.
type StreamTransformType string

const (
	StreamTransformAddStream    StreamTransformType = "add_stream"
	StreamTransformRemoveStream StreamTransformType = "remove_stream"
	StreamTransformUpdateStream StreamTransformType = "update_stream"
)

// FieldTransformType is the kind of a field-level schema change.
type FieldTransformType string

const (
	FieldTransformAddField          FieldTransformType = "add_field"
	FieldTransformRemoveField       FieldTransformType = "remove_field"
	FieldTransformUpdateFieldSchema FieldTransformType = "update_field_schema"
)

// FieldTransform describes a change to one field. FieldName is the path from the stream root.
type FieldTransform struct {
	TransformType FieldTransformType `json:"transformType"`
	FieldName     []string           `json:"fieldName"`
	Breaking      bool               `json:"breaking,omitempty"`
}

// StreamTransform describes a change to one stream. UpdateStream is only set for update_stream.
type StreamTransform struct {
	TransformType    StreamTransformType `json:"transformType"`
	StreamDescriptor StreamDescriptor    `json:"streamDescriptor"`
	UpdateStream     []FieldTransform    `json:"updateStream,omitempty"`
}

// CatalogDiff is the ordered set of changes between two catalog snapshots.
type CatalogDiff struct {
	Transforms []StreamTransform `json:"transforms"`
}

// IsEmpty reports whether the diff has no transforms.
func (d *CatalogDiff) IsEmpty() bool {
	return d == nil || len(d.Transforms) == 0
}
