package ui

import "go.uber.org/fx"

// Module provides presentation dependencies.
var Module = fx.Module("ui",
	fx.Provide(
		NewConsolePresenter,
		NewConsole,
	),
)
