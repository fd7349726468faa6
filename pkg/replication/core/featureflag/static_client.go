package featureflag

import (
	"sync"

	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// Rule overrides a flag for one context key of one kind.
type Rule struct {
	Kind  ContextKind
	Key   string
	Value bool
}

// StaticClient evaluates flags from in-process values, typically loaded from configuration.
// Context rules win over global values; global values win over Flag.Default.
type StaticClient struct {
	mu     sync.RWMutex
	values map[string]bool
	rules  map[string][]Rule
}

// NewStaticClient creates a StaticClient from global values keyed by flag key.
func NewStaticClient(values map[string]bool) *StaticClient {
	c := &StaticClient{values: make(map[string]bool, len(values)), rules: make(map[string][]Rule)}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Set sets the global value of a flag.
func (c *StaticClient) Set(flagKey string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[flagKey] = value
}

// AddRule overrides a flag for one context.
func (c *StaticClient) AddRule(flagKey string, rule Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[flagKey] = append(c.rules[flagKey], rule)
}

// BoolVariation implements Client.
func (c *StaticClient) BoolVariation(flag Flag, ctx Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.matchRule(flag.Key, ctx); ok {
		logger.Debugf("Flag %s resolved to %t for %s %s (rule)", flag.Key, v, ctx.Kind(), ctx.Key())
		return v
	}
	if v, ok := c.values[flag.Key]; ok {
		return v
	}
	return flag.Default
}

func (c *StaticClient) matchRule(flagKey string, ctx Context) (bool, bool) {
	if ctx == nil {
		return false, false
	}
	if multi, ok := ctx.(Multi); ok {
		for _, part := range multi {
			if v, ok := c.matchRule(flagKey, part); ok {
				return v, true
			}
		}
		return false, false
	}
	for _, r := range c.rules[flagKey] {
		if r.Kind == ctx.Kind() && r.Key == ctx.Key() {
			return r.Value, true
		}
	}
	return false, false
}

var _ Client = (*StaticClient)(nil)
