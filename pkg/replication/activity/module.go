package activity

import (
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/engine/attempt"
	"github.com/tigerroll/syncwave/pkg/replication/engine/orchestrator"
)

// ReplicationActivityParams defines the dependencies of the ReplicationActivity.
type ReplicationActivityParams struct {
	fx.In
	Config      *config.Config
	Secrets     port.SecretsHydrator
	Validator   port.InputValidator
	Flags       featureflag.Client
	Handles     *orchestrator.HandleFactory
	Execution   *attempt.Execution
	Recorder    metrics.MetricRecorder
	Tracer      metrics.Tracer
	Connections port.ConnectionAPI        `optional:"true"`
	Workloads   port.WorkloadAPI          `optional:"true"`
	Outputs     port.WorkloadOutputReader `optional:"true"`
}

func provideReplicationActivity(p ReplicationActivityParams) *ReplicationActivity {
	return NewReplicationActivity(Collaborators{
		Secrets:     p.Secrets,
		Validator:   p.Validator,
		Connections: p.Connections,
		Flags:       p.Flags,
		Local:       p.Handles,
		Workloads:   p.Workloads,
		Outputs:     p.Outputs,
		Execution:   p.Execution,
		Recorder:    p.Recorder,
		Tracer:      p.Tracer,
	}, OptionsFromConfig(p.Config))
}

// Module provides the sync activities. The host process supplies the platform
// collaborators: secret hydration, the source API and optionally the connection API.
var Module = fx.Options(
	fx.Provide(
		provideReplicationActivity,
		NewRefreshSchemaActivityFromConfig,
	),
)
