package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
	ConfigFilePath string `name:"configFilePath" optional:"true"`
}

// LoadConfig builds a Config from defaults, then the YAML document (with ${VAR}
// placeholders expanded), then environment variables named after the yaml path,
// e.g. SYNCWAVE_REPLICATION_HEARTBEAT_INTERVAL_SECONDS.
func LoadConfig(envFilePath string, yamlDoc []byte) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	cfg := NewConfig()

	expanded, err := NewOsEnvironmentExpander().Expand(yamlDoc)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to expand environment placeholders", err)
	}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to unmarshal config", err)
	}
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to load config from environment variables", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads the YAML document at path and loads it like LoadConfig.
func LoadConfigFile(envFilePath, path string) (*Config, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, fmt.Sprintf("failed to read config file %s", path), err)
	}
	return LoadConfig(envFilePath, doc)
}

// NewConfigProvider is an Fx provider that loads *Config and applies the log level.
// A config file path, when supplied, takes precedence over the embedded document.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if params.ConfigFilePath != "" {
		cfg, err = LoadConfigFile(params.EnvFilePath, params.ConfigFilePath)
	} else {
		cfg, err = LoadConfig(params.EnvFilePath, params.EmbeddedConfig)
	}
	if err != nil {
		return nil, err
	}
	cfg.EmbeddedConfig = params.EmbeddedConfig

	logger.SetLogLevel(cfg.Syncwave.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Syncwave.System.Logging.Level)
	return cfg, nil
}

// Validate rejects configurations the core cannot run with.
func Validate(cfg *Config) error {
	r := cfg.Syncwave.Replication
	switch r.JobKind {
	case "replication", "normalization", "dbt":
	default:
		return exception.NewConfigError(moduleName, fmt.Sprintf("unknown replication.job_kind %q", r.JobKind), nil)
	}
	if r.HeartbeatIntervalSeconds <= 0 {
		return exception.NewConfigError(moduleName, "replication.heartbeat_interval_seconds must be positive", nil)
	}
	switch cfg.Syncwave.JobStatusStore.Type {
	case "inmemory", "sql", "document", "redis":
	default:
		return exception.NewConfigError(moduleName, fmt.Sprintf("unknown job_status_store.type %q", cfg.Syncwave.JobStatusStore.Type), nil)
	}
	for i, rule := range cfg.Syncwave.FeatureFlags.Rules {
		if rule.Scope != "workspace" && rule.Scope != "connection" {
			return exception.NewConfigError(moduleName, fmt.Sprintf("feature_flags.rules[%d]: scope must be workspace or connection, got %q", i, rule.Scope), nil)
		}
	}
	return nil
}

// loadStructFromEnv recursively overrides struct fields from environment variables
// named after their yaml tags. Slices and maps of non-struct values are left alone.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch {
		case field.Kind() == reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Map && field.Type().Elem().Kind() == reflect.Bool:
			if err := loadBoolMapFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Slice || field.Kind() == reflect.Map:
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadBoolMapFromEnv fills map[string]bool fields such as feature flag values.
// SYNCWAVE_FEATURE_FLAGS_VALUES_PLATFORM_USE_WORKLOAD_API=true sets the key
// "platform_use_workload_api"; flag keys containing dots are matched through their
// underscore form as well.
func loadBoolMapFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.IsNil() {
		mapField.Set(reflect.MakeMap(mapField.Type()))
	}
	existing := map[string]string{}
	for _, k := range mapField.MapKeys() {
		existing[envKey(k.String())] = k.String()
	}
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		v, err := strconv.ParseBool(parts[1])
		if err != nil {
			return fmt.Errorf("env var '%s%s': %w", prefix, parts[0], err)
		}
		key, ok := existing[parts[0]]
		if !ok {
			key = strings.ToLower(parts[0])
		}
		mapField.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(v))
	}
	return nil
}

func envKey(k string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(k))
}

// setField sets a scalar field from its string form.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
