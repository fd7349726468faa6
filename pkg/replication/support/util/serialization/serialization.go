// Package serialization reads and writes the JSON documents exchanged with the
// surrounding platform: job input files, launcher configs and replication outputs.
package serialization

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const module = "serialization"

// maskValue replaces secret values in logged documents.
const maskValue = "********"

// ReadJSONFile reads path and decodes it into a new T.
// A missing or malformed file is a ConfigError.
func ReadJSONFile[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.NewConfigError(module, fmt.Sprintf("failed to read %s", path), err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, exception.NewConfigError(module, fmt.Sprintf("malformed JSON document %s", path), err)
	}
	return &v, nil
}

// WriteJSONFile encodes v and writes it to path with 0644 permissions.
func WriteJSONFile(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return exception.New(exception.InternalError, module, fmt.Sprintf("failed to serialize document for %s", path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return exception.NewConfigError(module, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// Serialize encodes v as a JSON string.
func Serialize(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to serialize %T: %v", v, err)
		return "", exception.New(exception.InternalError, module, fmt.Sprintf("failed to serialize %T", v), err)
	}
	return string(data), nil
}

// Deserialize decodes a JSON string into a new T.
func Deserialize[T any](s string) (*T, error) {
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, exception.NewConfigError(module, fmt.Sprintf("failed to deserialize %T", v), err)
	}
	return &v, nil
}

// SerializedSize returns the length in bytes of v's JSON encoding.
func SerializedSize(v interface{}) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, exception.New(exception.InternalError, module, fmt.Sprintf("failed to measure %T", v), err)
	}
	return len(data), nil
}

// MaskSecrets returns a shallow copy of cfg with the values of secretKeys masked.
// Nested objects are masked recursively; the input map is never modified.
func MaskSecrets(cfg map[string]interface{}, secretKeys []string) map[string]interface{} {
	if len(cfg) == 0 {
		return map[string]interface{}{}
	}
	secret := make(map[string]struct{}, len(secretKeys))
	for _, k := range secretKeys {
		secret[k] = struct{}{}
	}
	return maskMap(cfg, secret)
}

func maskMap(in map[string]interface{}, secret map[string]struct{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if _, ok := secret[k]; ok {
			out[k] = maskValue
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = maskMap(nested, secret)
			continue
		}
		out[k] = v
	}
	return out
}
