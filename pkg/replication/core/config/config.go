// Package config provides the configuration structures of the replication core.
package config

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// ReplicationConfig configures the orchestrator and the activity coordinator.
type ReplicationConfig struct {
	// JobKind selects the orchestrator variant: "replication", "normalization" or "dbt".
	JobKind string `yaml:"job_kind"`
	// ConfigDir is the directory holding input.json and the launcher configs.
	ConfigDir string `yaml:"config_dir"`
	// WorkspaceRoot is the root below which per-attempt job directories are created.
	WorkspaceRoot string `yaml:"workspace_root"`
	// HeartbeatIntervalSeconds is the period of the liveness signal sent to the workflow engine.
	HeartbeatIntervalSeconds int `yaml:"heartbeat_interval_seconds"`
	// MaxOutputSizeBytes is the size above which a serialized sync output is logged as oversized.
	MaxOutputSizeBytes int `yaml:"max_output_size_bytes"`
	// WorkloadEnabled selects the remote workload backend in the orchestrator.
	WorkloadEnabled bool `yaml:"workload_enabled"`
	// InputSchemaFile optionally replaces the built-in sync input schema.
	InputSchemaFile string `yaml:"input_schema_file"`
	// RefreshSchemaMaxAgeHours is how old a catalog fetch may get before a refresh is due.
	RefreshSchemaMaxAgeHours int `yaml:"refresh_schema_max_age_hours"`
	// RunnerCommand is the executable (and leading arguments) that performs replication,
	// normalization and dbt work for a job root.
	RunnerCommand []string `yaml:"runner_command"`
}

// FeatureFlagRule overrides one flag for one workspace or connection.
type FeatureFlagRule struct {
	Flag  string `yaml:"flag"`
	Scope string `yaml:"scope"`
	ID    string `yaml:"id"`
	Value bool   `yaml:"value"`
}

// FeatureFlagsConfig holds static flag values.
type FeatureFlagsConfig struct {
	Values map[string]bool   `yaml:"values"`
	Rules  []FeatureFlagRule `yaml:"rules"`
}

// VersionOverrideConfig pins a definition to another version for some workspaces or actors.
type VersionOverrideConfig struct {
	ActorType    string   `yaml:"actor_type"`
	DefinitionID string   `yaml:"definition_id"`
	WorkspaceIDs []string `yaml:"workspace_ids"`
	ActorIDs     []string `yaml:"actor_ids"`
	VersionID    string   `yaml:"version_id"`
	// DefaultVersionConstraint limits the override to defaults whose image tag satisfies it (e.g. "<2.0.0").
	DefaultVersionConstraint string `yaml:"default_version_constraint"`
}

// ActorDefinitionStoreConfig selects where connector definitions, actors and their
// versions are read from.
type ActorDefinitionStoreConfig struct {
	// Type is one of "inmemory", "sql".
	Type        string `yaml:"type"`
	DatabaseRef string `yaml:"database_ref"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// JobStatusStoreConfig selects and configures the job status backend.
type JobStatusStoreConfig struct {
	// Type is one of "inmemory", "sql", "document", "redis".
	Type        string `yaml:"type"`
	DatabaseRef string `yaml:"database_ref"`
	StorageRef  string `yaml:"storage_ref"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	RedisRef    string `yaml:"redis_ref"`
	TTLSeconds  int    `yaml:"ttl_seconds"`
	// AutoMigrate runs the schema migrations before the sql store is used.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// WorkloadAPIConfig configures the remote workload service client.
type WorkloadAPIConfig struct {
	BaseURL             string `yaml:"base_url"`
	AuthToken           string `yaml:"auth_token"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	// OutputStorageRef names the storage connection workload outputs are read from.
	OutputStorageRef string `yaml:"output_storage_ref"`
	OutputBucket     string `yaml:"output_bucket"`
	// LogPathPrefix is where workload logs are written, relative to the job root.
	LogPathPrefix string `yaml:"log_path_prefix"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Exporter is one of "none", "otlp-grpc", "otlp-http".
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// MetricsConfig configures the Prometheus recorder.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// WebhookConfig is one notification channel.
type WebhookConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// NotificationConfig configures schema-change notifications.
type NotificationConfig struct {
	Webhooks       []WebhookConfig `yaml:"webhooks"`
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	// ConnectionURLFormat is formatted with the workspace id and the connection id.
	ConnectionURLFormat string `yaml:"connection_url_format"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// MaskedConfigKeys are connector configuration keys whose values are masked in logs.
	MaskedConfigKeys []string `yaml:"masked_config_keys"`
}

// SyncwaveConfig holds all configuration under the "syncwave" top-level key.
type SyncwaveConfig struct {
	System           SystemConfig               `yaml:"system"`
	Replication      ReplicationConfig          `yaml:"replication"`
	FeatureFlags     FeatureFlagsConfig         `yaml:"feature_flags"`
	VersionOverrides []VersionOverrideConfig    `yaml:"version_overrides"`
	JobStatusStore   JobStatusStoreConfig       `yaml:"job_status_store"`
	ActorDefinitions ActorDefinitionStoreConfig `yaml:"actor_definitions"`
	WorkloadAPI      WorkloadAPIConfig          `yaml:"workload_api"`
	Tracing          TracingConfig              `yaml:"tracing"`
	Metrics          MetricsConfig              `yaml:"metrics"`
	Notification     NotificationConfig         `yaml:"notification"`
	Security         SecurityConfig             `yaml:"security"`
	// AdapterConfigs holds the named adapter blocks ("database", "storage", "redis"),
	// decoded by each adapter with mapstructure.
	AdapterConfigs map[string]interface{} `yaml:"adapter"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Syncwave       SyncwaveConfig `yaml:"syncwave"`
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// Adapter section names under AdapterConfigs.
const (
	AdapterDatabase = "database"
	AdapterStorage  = "storage"
	AdapterRedis    = "redis"
)

// AdapterSection returns the named adapter blocks of one section, or an empty map.
func (c *Config) AdapterSection(section string) map[string]interface{} {
	raw, ok := c.Syncwave.AdapterConfigs[section]
	if !ok {
		return map[string]interface{}{}
	}
	switch m := raw.(type) {
	case map[string]interface{}:
		return m
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			if s, ok := k.(string); ok {
				out[s] = v
			}
		}
		return out
	}
	return map[string]interface{}{}
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Syncwave: SyncwaveConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Replication: ReplicationConfig{
				JobKind:                  "replication",
				ConfigDir:                "/config",
				WorkspaceRoot:            "/workspace",
				HeartbeatIntervalSeconds: 10,
				MaxOutputSizeBytes:       2 * 1024 * 1024,
				RefreshSchemaMaxAgeHours: 24,
			},
			FeatureFlags: FeatureFlagsConfig{Values: map[string]bool{}},
			JobStatusStore: JobStatusStoreConfig{
				Type:   "inmemory",
				Prefix: "job-status",
			},
			ActorDefinitions: ActorDefinitionStoreConfig{Type: "inmemory"},
			WorkloadAPI: WorkloadAPIConfig{
				TimeoutSeconds:      30,
				PollIntervalSeconds: 5,
				LogPathPrefix:       "logs",
			},
			Tracing: TracingConfig{
				Exporter:    "none",
				ServiceName: "syncwave-orchestrator",
				SampleRatio: 1.0,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Namespace: "syncwave",
			},
			Notification: NotificationConfig{
				TimeoutSeconds: 10,
			},
			Security: SecurityConfig{
				MaskedConfigKeys: []string{"password", "api_key", "secret", "client_secret", "access_token"},
			},
			AdapterConfigs: map[string]interface{}{},
		},
	}
}
