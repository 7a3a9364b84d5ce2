package ui

import (
	"bufio"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/session"
)

// sessionControl is the slice of the session manager the console drives.
type sessionControl interface {
	SendText(text string)
	SetAudioOnly(v bool)
}

// Console reads typed input and forwards it into the session: plain lines
// become best-effort text messages, slash commands control the session.
type Console struct {
	logger *zap.Logger
	ctrl   sessionControl
	in     io.Reader
}

// NewConsole creates a Console reading from stdin.
func NewConsole(logger *zap.Logger, manager *session.Manager) *Console {
	return &Console{
		logger: logger.Named("console"),
		ctrl:   manager,
		in:     os.Stdin,
	}
}

// Run consumes input lines until EOF or /quit, then calls shutdown. Meant to
// run on its own goroutine; stdin reads are not cancellable.
func (c *Console) Run(shutdown func()) {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			shutdown()

			return
		case line == "/audio":
			c.ctrl.SetAudioOnly(true)
		case strings.HasPrefix(line, "/"):
			c.logger.Warn("Unknown command", zap.String("input", line))
		default:
			// Best effort: silently dropped when the session is down.
			c.ctrl.SendText(line)
		}
	}

	if err := scanner.Err(); err != nil {
		c.logger.Warn("Input closed with error", zap.Error(err))
	}
	shutdown()
}
