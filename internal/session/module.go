package session

import "go.uber.org/fx"

// Module provides session dependencies.
var Module = fx.Module("session",
	fx.Provide(
		NewManager,
	),
)
