// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/capture"
	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/internal/history"
	"github.com/mahakjain123456/feynman-mirror/internal/session"
	"github.com/mahakjain123456/feynman-mirror/internal/summary"
	"github.com/mahakjain123456/feynman-mirror/internal/ui"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	// Combine all provided modules with lifecycle management
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	app := fx.New(options...)

	return &Application{
		app: app,
	}
}

// Run starts the application and blocks until it's stopped.
func (a *Application) Run() {
	a.app.Run()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// hookParams holds the dependencies of the application lifecycle hooks.
type hookParams struct {
	fx.In
	LC         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Cfg        *config.Config
	Manager    *session.Manager
	Console    *ui.Console
	Summarizer summary.Service
	Store      history.Store
}

// registerLifecycleHooks connects the session on start and, on stop, tears it
// down and records a summary of what was said.
func registerLifecycleHooks(p hookParams) {
	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go p.Console.Run(func() { _ = p.Shutdowner.Shutdown() })

			err := p.Manager.Connect(ctx, p.Cfg.Capture.AudioOnly)
			if errors.Is(err, capture.ErrNoCamera) && !p.Cfg.Capture.AudioOnly {
				p.Logger.Warn("No camera available, retrying audio-only")
				err = p.Manager.Connect(ctx, true)
			}
			if err != nil {
				p.Logger.Error("Failed to connect session", zap.Error(err))

				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Manager.Disconnect()
			recordSession(ctx, p)

			return nil
		},
	})
}

// recordSession summarizes the finished session and appends it to history.
// Best effort: a summary failure is logged, never fatal to shutdown.
func recordSession(ctx context.Context, p hookParams) {
	transcript := p.Manager.Transcript()
	if transcript == "" {
		return
	}

	text, err := p.Summarizer.Summarize(ctx, transcript)
	if err != nil {
		p.Logger.Warn("Skipping session record", zap.Error(err))

		return
	}

	rec, err := p.Store.Append(p.Cfg.Session.Topic, text, p.Manager.Clarity().Score)
	if err != nil {
		p.Logger.Warn("Failed to persist session record", zap.Error(err))

		return
	}

	p.Logger.Info("Session recorded", zap.String("id", rec.ID))
}
