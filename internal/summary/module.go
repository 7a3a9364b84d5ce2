package summary

import "go.uber.org/fx"

// Module provides summary dependencies.
var Module = fx.Module("summary",
	fx.Provide(
		NewService,
	),
)
