package playback

import "go.uber.org/fx"

// Module provides playback dependencies.
var Module = fx.Module("playback",
	fx.Provide(
		NewDecoder,
		NewOutputFactory,
	),
)
