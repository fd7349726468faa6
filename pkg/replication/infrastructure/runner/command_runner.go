// Package runner executes replication, normalization and dbt work by launching an
// external command in the attempt's job root.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/serialization"
)

const moduleName = "runner"

// Sub-commands passed to the runner command.
const (
	ActionReplicate = "replicate"
	ActionNormalize = "normalize"
	ActionTransform = "transform"
)

// LogFile is the file in the job root that receives the command's output.
const LogFile = "logs.log"

// stopGracePeriod is how long a cancelled command may take to exit after SIGINT.
const stopGracePeriod = 30 * time.Second

// CommandRunner invokes `<command...> <action> --input <file> --output <file>` with
// the job root as working directory.
type CommandRunner struct {
	command []string
}

var (
	_ port.ReplicationRunner    = (*CommandRunner)(nil)
	_ port.NormalizationRunner  = (*CommandRunner)(nil)
	_ port.TransformationRunner = (*CommandRunner)(nil)
)

// NewCommandRunner creates a CommandRunner. command holds the executable and its
// leading arguments.
func NewCommandRunner(command []string) *CommandRunner {
	return &CommandRunner{command: command}
}

// NewCommandRunnerFromConfig uses replication.runner_command.
func NewCommandRunnerFromConfig(cfg *config.Config) (*CommandRunner, error) {
	command := cfg.Syncwave.Replication.RunnerCommand
	if len(command) == 0 || command[0] == "" {
		return nil, exception.NewConfigError(moduleName, "replication.runner_command is required", nil)
	}
	return NewCommandRunner(command), nil
}

// Run performs a replication.
func (r *CommandRunner) Run(ctx context.Context, input *model.ReplicationInput, jobRoot string) (*model.ReplicationOutput, error) {
	outPath, err := r.execute(ctx, ActionReplicate, input, jobRoot)
	if err != nil {
		return nil, err
	}
	return serialization.ReadJSONFile[model.ReplicationOutput](outPath)
}

// Normalize runs basic normalization.
func (r *CommandRunner) Normalize(ctx context.Context, input *model.NormalizationInput, jobRoot string) (*model.NormalizationSummary, error) {
	outPath, err := r.execute(ctx, ActionNormalize, input, jobRoot)
	if err != nil {
		return nil, err
	}
	return serialization.ReadJSONFile[model.NormalizationSummary](outPath)
}

// Transform runs a custom dbt transformation. Its output file is not read.
func (r *CommandRunner) Transform(ctx context.Context, input *model.OperatorDbtInput, jobRoot string) error {
	_, err := r.execute(ctx, ActionTransform, input, jobRoot)
	return err
}

func (r *CommandRunner) execute(ctx context.Context, action string, input interface{}, jobRoot string) (string, error) {
	const op = "CommandRunner.execute"

	if err := os.MkdirAll(jobRoot, 0o755); err != nil {
		return "", exception.NewConfigError(op, fmt.Sprintf("failed to create job root %s", jobRoot), err)
	}
	inPath := filepath.Join(jobRoot, action+"_input.json")
	outPath := filepath.Join(jobRoot, action+"_output.json")
	if err := serialization.WriteJSONFile(inPath, input); err != nil {
		return "", err
	}

	logFile, err := os.OpenFile(filepath.Join(jobRoot, LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", exception.NewConfigError(op, "failed to open the job log", err)
	}
	defer logFile.Close()

	args := append(append([]string{}, r.command[1:]...), action, "--input", inPath, "--output", outPath)
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.Dir = jobRoot
	tail := &tailBuffer{limit: 4096}
	cmd.Stdout = logFile
	cmd.Stderr = io.MultiWriter(logFile, tail)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = stopGracePeriod

	logger.Infof("%s: running %s %s in %s.", op, r.command[0], action, jobRoot)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			logger.Warnf("%s: %s stopped after %v: %v", op, action, time.Since(start), ctx.Err())
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", exception.NewWorkerExecutionError(op,
				fmt.Sprintf("%s exited with code %d: %s", action, exitErr.ExitCode(), strings.TrimSpace(tail.String())), err)
		}
		return "", exception.NewWorkerExecutionError(op, fmt.Sprintf("failed to start %s", r.command[0]), err)
	}
	logger.Infof("%s: %s finished in %v.", op, action, time.Since(start))
	return outPath, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string { return string(b.buf) }
