package version

import "go.uber.org/fx"

// Module provides the Resolver.
var Module = fx.Options(
	fx.Provide(NewResolver),
)
