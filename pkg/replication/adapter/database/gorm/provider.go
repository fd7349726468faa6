// Package gorm opens named gorm connections from the `adapter.database` configuration.
// Dialects register themselves from the mysql, postgres and sqlite subpackages.
package gorm

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/syncwave/pkg/replication/adapter/database/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// DialectorFactory builds a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for dbType.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory returns the factory registered for dbType.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		known := make([]string, 0, len(dialectorRegistry))
		for k := range dialectorRegistry {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("no dialector registered for database type '%s' (known: %v)", dbType, known)
	}
	return factory, nil
}

// Connection is an open, named gorm connection.
type Connection struct {
	db   *gorm.DB
	cfg  dbconfig.DatabaseConfig
	name string
}

// DB returns the gorm handle.
func (c *Connection) DB() *gorm.DB { return c.db }

// Config returns the configuration the connection was opened with.
func (c *Connection) Config() dbconfig.DatabaseConfig { return c.cfg }

func (c *Connection) Name() string { return c.name }

func (c *Connection) Type() string { return c.cfg.Type }

// Close closes the underlying sql.DB.
func (c *Connection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Provider opens and caches connections by name.
type Provider struct {
	raw         map[string]interface{}
	connections map[string]*Connection
	mu          sync.Mutex
}

// NewProvider creates a provider over the named database blocks.
func NewProvider(raw map[string]interface{}) *Provider {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return &Provider{raw: raw, connections: make(map[string]*Connection)}
}

// DecodeConfig decodes one raw database block using its yaml tags.
func DecodeConfig(raw interface{}) (dbconfig.DatabaseConfig, error) {
	var cfg dbconfig.DatabaseConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GetConnection returns the connection for name, opening it on first use.
func (p *Provider) GetConnection(name string) (*Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}
	rawConfig, ok := p.raw[name]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found in adapter.database configs", name)
	}
	dbConfig, err := DecodeConfig(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	db, err := Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection '%s': %w", name, err)
	}
	conn := &Connection{db: db, cfg: dbConfig, name: name}
	p.connections[name] = conn
	logger.Infof("Established new DB connection: %s (%s)", name, dbConfig.Type)
	return conn, nil
}

// CloseAll closes every open connection.
func (p *Provider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	return result.ErrorOrNil()
}

// Open opens a gorm connection for dbConfig and applies its pool settings.
func Open(dbConfig dbconfig.DatabaseConfig) (*gorm.DB, error) {
	factory, err := GetDialectorFactory(dbConfig.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := factory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", dbConfig.Type, err)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(dbConfig.LogLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if dbConfig.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	}
	if dbConfig.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	}
	if dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}
