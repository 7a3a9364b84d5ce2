package infrastructure

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// AudioRuntimeModule initializes the host audio runtime for the application
// lifetime. Device streams are opened per session elsewhere; this only owns
// the global init/terminate pair.
var AudioRuntimeModule = fx.Module("audioruntime",
	fx.Invoke(registerAudioRuntime),
)

func registerAudioRuntime(lc fx.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := portaudio.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize audio runtime: %w", err)
			}
			logger.Info("Audio runtime initialized")

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := portaudio.Terminate(); err != nil {
				return fmt.Errorf("failed to terminate audio runtime: %w", err)
			}
			logger.Info("Audio runtime terminated")

			return nil
		},
	})
}
