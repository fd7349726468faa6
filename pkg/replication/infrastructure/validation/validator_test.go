package validation_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/validation"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

func validInput() *model.ReplicationInput {
	return &model.ReplicationInput{
		SourceID:                 uuid.New(),
		DestinationID:            uuid.New(),
		WorkspaceID:              uuid.New(),
		ConnectionID:             uuid.New(),
		SourceConfiguration:      map[string]interface{}{"host": "db.internal"},
		DestinationConfiguration: map[string]interface{}{"bucket": "lake"},
		Catalog: &model.ConfiguredCatalog{Streams: []*model.ConfiguredStream{{
			Stream:              model.StreamDescriptor{Name: "users", Namespace: "public"},
			SyncMode:            model.SyncModeIncremental,
			DestinationSyncMode: model.DestinationSyncModeAppendDedup,
		}}},
		JobRunConfig: model.JobRunConfig{JobID: "42", AttemptID: 0},
	}
}

func TestSchemaValidator_ReplicationInput(t *testing.T) {
	v, err := validation.NewSchemaValidator()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, v.Validate(ctx, validation.ReplicationInputSchema, validInput()))

	tests := []struct {
		name   string
		mutate func(in *model.ReplicationInput)
	}{
		{"missing catalog", func(in *model.ReplicationInput) { in.Catalog = nil }},
		{"missing source configuration", func(in *model.ReplicationInput) { in.SourceConfiguration = nil }},
		{"empty job id", func(in *model.ReplicationInput) { in.JobRunConfig.JobID = "" }},
		{"negative attempt", func(in *model.ReplicationInput) { in.JobRunConfig.AttemptID = -1 }},
		{"unknown sync mode", func(in *model.ReplicationInput) { in.Catalog.Streams[0].SyncMode = "sometimes" }},
		{"unnamed stream", func(in *model.ReplicationInput) { in.Catalog.Streams[0].Stream.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			err := v.Validate(ctx, validation.ReplicationInputSchema, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, exception.ErrValidation))
			assert.True(t, exception.IsFatal(err))
		})
	}
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	v, err := validation.NewSchemaValidator()
	require.NoError(t, err)
	err = v.Validate(context.Background(), "nope", map[string]interface{}{})
	assert.True(t, errors.Is(err, exception.ErrConfig))
}

func TestSchemaValidator_RegisterRejectsBrokenSchema(t *testing.T) {
	v, err := validation.NewSchemaValidator()
	require.NoError(t, err)
	err = v.Register("broken", []byte(`{"type": 12}`))
	assert.True(t, errors.Is(err, exception.ErrConfig))
}

func TestNewSchemaValidatorFromConfig_OverridesInputSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["prefix"]
	}`), 0o644))

	cfg := config.NewConfig()
	cfg.Syncwave.Replication.InputSchemaFile = path
	v, err := validation.NewSchemaValidatorFromConfig(cfg)
	require.NoError(t, err)

	in := validInput()
	assert.Error(t, v.Validate(context.Background(), validation.ReplicationInputSchema, in))
	in.Prefix = "raw_"
	assert.NoError(t, v.Validate(context.Background(), validation.ReplicationInputSchema, in))

	cfg.Syncwave.Replication.InputSchemaFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = validation.NewSchemaValidatorFromConfig(cfg)
	assert.True(t, errors.Is(err, exception.ErrConfig))
}
