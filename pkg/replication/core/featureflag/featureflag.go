// Package featureflag defines the flags consulted by the replication core and the
// scopes they are evaluated against. The client is passed explicitly to each
// component; there is no process-wide flag state.
package featureflag

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Flag is a boolean flag with the value used when the flag service has no answer.
type Flag struct {
	Key     string
	Default bool
}

var (
	// UseActorScopedDefaultVersions lets an actor pin its own default version. Evaluated per workspace.
	UseActorScopedDefaultVersions = Flag{Key: "connectors.useActorScopedDefaultVersions", Default: true}
	// UseWorkloadAPI routes replications through the remote workload service. Evaluated per workspace and connection.
	UseWorkloadAPI = Flag{Key: "platform.use-workload-api", Default: false}
	// ShouldRunRefreshSchema enables schema refresh before a sync. Evaluated per connection.
	ShouldRunRefreshSchema = Flag{Key: "refreshSchema.period.enabled", Default: true}
	// RemoveLargeSyncInputs makes the activity fetch its sync input instead of receiving it inline. Evaluated per workspace.
	RemoveLargeSyncInputs = Flag{Key: "platform.remove-large-sync-inputs", Default: false}
)

// ContextKind is the kind of entity a flag is evaluated for.
type ContextKind string

const (
	KindWorkspace  ContextKind = "workspace"
	KindConnection ContextKind = "connection"
	KindMulti      ContextKind = "multi"
)

// Context is the scope of a flag evaluation.
type Context interface {
	Kind() ContextKind
	Key() string
}

// Workspace scopes an evaluation to a workspace.
type Workspace uuid.UUID

func (w Workspace) Kind() ContextKind { return KindWorkspace }
func (w Workspace) Key() string       { return uuid.UUID(w).String() }

// Connection scopes an evaluation to a connection.
type Connection uuid.UUID

func (c Connection) Kind() ContextKind { return KindConnection }
func (c Connection) Key() string       { return uuid.UUID(c).String() }

// Multi is a composite scope; a flag matches it if it matches any of its parts.
type Multi []Context

func (m Multi) Kind() ContextKind { return KindMulti }

// Key joins the part keys in sorted order so equal composites share a key.
func (m Multi) Key() string {
	keys := make([]string, 0, len(m))
	for _, c := range m {
		keys = append(keys, string(c.Kind())+":"+c.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Client evaluates flags.
type Client interface {
	BoolVariation(flag Flag, ctx Context) bool
}
