package versionoverride

import (
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
)

// Module provides the configured overrides as the port.DefinitionVersionOverrideProvider.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewProvider, fx.As(new(port.DefinitionVersionOverrideProvider)))),
)
