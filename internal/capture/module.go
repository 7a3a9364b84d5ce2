package capture

import "go.uber.org/fx"

// Module provides capture dependencies.
var Module = fx.Module("capture",
	fx.Provide(
		NewDevices,
		NewPipeline,
	),
)
