package history

import "go.uber.org/fx"

// Module provides history dependencies.
var Module = fx.Module("history",
	fx.Provide(
		NewStore,
	),
)
