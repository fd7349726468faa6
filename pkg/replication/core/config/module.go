package config

import "go.uber.org/fx"

// NewLoggingConfigProvider exposes the logging section on its own.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Syncwave.System.Logging
}

// NewReplicationConfigProvider exposes the replication section on its own.
func NewReplicationConfigProvider(cfg *Config) *ReplicationConfig {
	return &cfg.Syncwave.Replication
}

// Module provides the commonly used sections of a supplied *Config.
var Module = fx.Options(
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewReplicationConfigProvider),
	fx.Provide(fx.Annotate(NewOsEnvironmentExpander, fx.As(new(EnvironmentExpander)))),
)
