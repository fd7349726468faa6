package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	storageConfig "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// Factory builds an ObjectStore from its decoded configuration.
type Factory func(ctx context.Context, cfg storageConfig.StorageConfig, name string) (ObjectStore, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a backend available under storageType.
// Backends call it from their init function.
func RegisterFactory(storageType string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[storageType] = f
}

// RegisteredTypes returns the registered backend types in sorted order.
func RegisteredTypes() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func lookupFactory(storageType string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[storageType]
	return f, ok
}

// DecodeConfig decodes one raw adapter block using its yaml tags.
func DecodeConfig(raw interface{}) (storageConfig.StorageConfig, error) {
	var cfg storageConfig.StorageConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, fmt.Errorf("failed to create storage config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("failed to decode storage config: %w", err)
	}
	return cfg, nil
}

// ConfigProvider resolves connections from the raw `adapter.storage` configuration map.
type ConfigProvider struct {
	raw         map[string]interface{}
	connections map[string]ObjectStore
	mu          sync.Mutex
}

var _ Provider = (*ConfigProvider)(nil)

// NewConfigProvider creates a provider over the named storage blocks.
func NewConfigProvider(raw map[string]interface{}) *ConfigProvider {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return &ConfigProvider{
		raw:         raw,
		connections: make(map[string]ObjectStore),
	}
}

// GetConnection returns the cached connection for name or opens a new one.
func (p *ConfigProvider) GetConnection(ctx context.Context, name string) (ObjectStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}

	namedConfig, ok := p.raw[name]
	if !ok {
		return nil, fmt.Errorf("storage configuration for name '%s' not found", name)
	}
	cfg, err := DecodeConfig(namedConfig)
	if err != nil {
		return nil, fmt.Errorf("storage connection '%s': %w", name, err)
	}
	factory, ok := lookupFactory(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for type '%s' (connection '%s', known: %v)", cfg.Type, name, RegisteredTypes())
	}
	conn, err := factory(ctx, cfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage connection '%s': %w", name, err)
	}
	p.connections[name] = conn
	logger.Debugf("Opened %s storage connection '%s'.", cfg.Type, name)
	return conn, nil
}

// CloseAll closes every open connection and reports all close failures together.
func (p *ConfigProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close storage connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	return result.ErrorOrNil()
}
