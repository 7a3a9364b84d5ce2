// Package main provides the entry point for the feynman-mirror session client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/mahakjain123456/feynman-mirror/internal/app"
	"github.com/mahakjain123456/feynman-mirror/internal/capture"
	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/internal/history"
	"github.com/mahakjain123456/feynman-mirror/internal/infrastructure"
	"github.com/mahakjain123456/feynman-mirror/internal/live"
	"github.com/mahakjain123456/feynman-mirror/internal/playback"
	"github.com/mahakjain123456/feynman-mirror/internal/session"
	"github.com/mahakjain123456/feynman-mirror/internal/summary"
	"github.com/mahakjain123456/feynman-mirror/internal/ui"
	pkginfra "github.com/mahakjain123456/feynman-mirror/pkg/infrastructure"
)

func main() {
	// Set a default config path. This can be overridden by environment variables or flags if needed.
	configPath := "config.yaml"

	// Create the application with all modules
	application := app.New(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,
		infrastructure.AudioRuntimeModule,

		// Session modules
		live.Module,
		capture.Module,
		playback.Module,
		session.Module,

		// Collaborator modules
		summary.Module,
		history.Module,
		ui.Module,

		// Supply the config path
		fx.Supply(configPath),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(pkginfra.NewFxLoggerAdapter),
	)

	// Set up a channel to listen for OS signals (like Ctrl+C)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the application in a goroutine. Run returns on its own when the
	// console triggers a shutdown (/quit or stdin EOF).
	done := make(chan struct{})
	go func() {
		application.Run()
		close(done)
	}()

	// Block until a signal is received or the application stops itself
	select {
	case <-done:
		fmt.Println("Application has shut down gracefully.")

		return
	case sig := <-sigCh:
		fmt.Printf("Received signal: %s, initiating shutdown.\n", sig)
	}

	// Create a context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	// Gracefully stop the application
	err := application.Stop(shutdownCtx)
	cancel() // Always cancel the context after Stop returns

	if err != nil {
		fmt.Printf("Error during shutdown: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Application has shut down gracefully.")
}
