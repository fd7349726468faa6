package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

// Documents exchanged through the config directory.
const (
	InputFile                     = "input.json"
	SourceLauncherConfigFile      = "sourceLauncherConfig.json"
	DestinationLauncherConfigFile = "destinationLauncherConfig.json"
	JobRunConfigFile              = "jobRunConfig.json"
	OutputFile                    = "output.json"
)

// InputFiles reads and writes the documents of one job in its config directory.
type InputFiles struct {
	dir string
}

// NewInputFiles creates InputFiles for dir.
func NewInputFiles(dir string) *InputFiles {
	return &InputFiles{dir: dir}
}

// NewInputFilesFromConfig uses replication.config_dir.
func NewInputFilesFromConfig(cfg *config.Config) *InputFiles {
	return NewInputFiles(cfg.Syncwave.Replication.ConfigDir)
}

// Dir returns the config directory.
func (f *InputFiles) Dir() string { return f.dir }

func (f *InputFiles) path(name string) string { return filepath.Join(f.dir, name) }

// ReadInput decodes input.json into a T. Missing or malformed input is a ConfigError.
func ReadInput[T any](f *InputFiles) (*T, error) {
	return serialization.ReadJSONFile[T](f.path(InputFile))
}

// JobRunConfig reads jobRunConfig.json.
func (f *InputFiles) JobRunConfig() (*model.JobRunConfig, error) {
	run, err := serialization.ReadJSONFile[model.JobRunConfig](f.path(JobRunConfigFile))
	if err != nil {
		return nil, err
	}
	if run.JobID == "" {
		return nil, exception.NewConfigError("InputFiles.JobRunConfig", fmt.Sprintf("%s has no jobId", JobRunConfigFile), nil)
	}
	return run, nil
}

// LauncherConfigs reads the source and destination launcher configs.
func (f *InputFiles) LauncherConfigs() (*model.IntegrationLauncherConfig, *model.IntegrationLauncherConfig, error) {
	source, err := serialization.ReadJSONFile[model.IntegrationLauncherConfig](f.path(SourceLauncherConfigFile))
	if err != nil {
		return nil, nil, err
	}
	destination, err := serialization.ReadJSONFile[model.IntegrationLauncherConfig](f.path(DestinationLauncherConfigFile))
	if err != nil {
		return nil, nil, err
	}
	return source, destination, nil
}

// WriteReplicationInputs lays out the documents a replication orchestrator reads.
func (f *InputFiles) WriteReplicationInputs(input *model.ReplicationInput) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return exception.NewConfigError("InputFiles.WriteReplicationInputs", fmt.Sprintf("failed to create %s", f.dir), err)
	}
	docs := []struct {
		name string
		doc  interface{}
	}{
		{InputFile, input},
		{SourceLauncherConfigFile, input.SourceLauncherConfig},
		{DestinationLauncherConfigFile, input.DestinationLauncherConfig},
		{JobRunConfigFile, input.JobRunConfig},
	}
	for _, d := range docs {
		if err := serialization.WriteJSONFile(f.path(d.name), d.doc); err != nil {
			return err
		}
	}
	return nil
}

// WriteOutput stores the serialized job output next to the inputs.
func (f *InputFiles) WriteOutput(output string) error {
	if err := os.WriteFile(f.path(OutputFile), []byte(output), 0o644); err != nil {
		return exception.NewConfigError("InputFiles.WriteOutput", fmt.Sprintf("failed to write %s", f.path(OutputFile)), err)
	}
	return nil
}
