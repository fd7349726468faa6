package runner

import (
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
)

// Module provides the CommandRunner for every runner port.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewCommandRunnerFromConfig,
		fx.As(new(port.ReplicationRunner)),
		fx.As(new(port.NormalizationRunner)),
		fx.As(new(port.TransformationRunner)),
	)),
)
