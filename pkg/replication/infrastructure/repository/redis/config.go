package redis

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ConnectionConfig is one named block of the `adapter.redis` section.
type ConnectionConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DecodeConfig decodes one raw redis block using its yaml tags.
func DecodeConfig(raw interface{}) (ConnectionConfig, error) {
	var cfg ConnectionConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, fmt.Errorf("failed to create redis config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("failed to decode redis config: %w", err)
	}
	if cfg.Addr == "" {
		return cfg, fmt.Errorf("redis addr must be set")
	}
	return cfg, nil
}
