package live

import "go.uber.org/fx"

// Module provides the live channel dialer.
var Module = fx.Module("live",
	fx.Provide(NewDialer),
)
