package validation

import (
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
)

// Module provides the SchemaValidator as the port.InputValidator.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewSchemaValidatorFromConfig, fx.As(new(port.InputValidator)))),
)
