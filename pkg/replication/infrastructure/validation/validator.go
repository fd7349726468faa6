// Package validation checks replication documents against JSON schemas.
package validation

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

const moduleName = "SchemaValidator"

// ReplicationInputSchema names the schema of model.ReplicationInput.
const ReplicationInputSchema = port.ReplicationInputSchema

//go:embed schemas/*.schema.json
var embeddedSchemas embed.FS

// SchemaValidator validates documents against named Draft 2020-12 schemas.
type SchemaValidator struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

var _ port.InputValidator = (*SchemaValidator)(nil)

// NewSchemaValidator creates a validator preloaded with the bundled schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[string]*jsonschema.Schema)}
	entries, err := embeddedSchemas.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		doc, err := embeddedSchemas.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := v.Register(strings.TrimSuffix(e.Name(), ".schema.json"), doc); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// NewSchemaValidatorFromConfig creates a validator and, when replication.input_schema_file
// is set, replaces the bundled replication input schema with that file.
func NewSchemaValidatorFromConfig(cfg *config.Config) (*SchemaValidator, error) {
	v, err := NewSchemaValidator()
	if err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to load bundled schemas", err)
	}
	path := cfg.Syncwave.Replication.InputSchemaFile
	if path == "" {
		return v, nil
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.NewConfigError(moduleName, fmt.Sprintf("failed to read input schema file %s", path), err)
	}
	if err := v.Register(ReplicationInputSchema, doc); err != nil {
		return nil, err
	}
	return v, nil
}

// Register compiles schema and stores it under name, replacing any previous one.
func (v *SchemaValidator) Register(name string, schema []byte) error {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://schemas.syncwave.local/%s.schema.json", name)
	if err := c.AddResource(url, bytes.NewReader(schema)); err != nil {
		return exception.NewConfigError(moduleName, fmt.Sprintf("schema %s load failed", name), err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return exception.NewConfigError(moduleName, fmt.Sprintf("schema %s compile failed", name), err)
	}

	v.mu.Lock()
	v.schemas[name] = compiled
	v.mu.Unlock()
	return nil
}

// Validate checks document against the schema registered as schemaName. document may be
// any JSON-serializable value; it is checked in its serialized form.
func (v *SchemaValidator) Validate(ctx context.Context, schemaName string, document interface{}) error {
	v.mu.RLock()
	schema, ok := v.schemas[schemaName]
	v.mu.RUnlock()
	if !ok {
		return exception.NewConfigError(moduleName, fmt.Sprintf("unknown schema %s", schemaName), nil)
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return exception.NewValidationError(moduleName, "document is not serializable", err)
	}
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return exception.NewValidationError(moduleName, "document is not valid JSON", err)
	}
	if err := schema.Validate(value); err != nil {
		return exception.NewValidationError(moduleName, fmt.Sprintf("document does not match schema %s", schemaName), err)
	}
	return nil
}
