// Package ui renders session events on the terminal and forwards typed input
// back into the session.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/session"
)

// ConsolePresenter prints session events as human-readable lines on stdout.
// Log output goes to stderr, so the two streams do not interleave.
type ConsolePresenter struct {
	logger *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewConsolePresenter creates a Presenter writing to stdout.
func NewConsolePresenter(logger *zap.Logger) session.Presenter {
	return &ConsolePresenter{
		logger: logger.Named("ui"),
		out:    os.Stdout,
	}
}

func (p *ConsolePresenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, format, args...)
}

// OnStateChange renders a connection-state transition.
func (p *ConsolePresenter) OnStateChange(s session.State) {
	p.printf("-- session %s --\n", s)
}

// OnClarity renders the latest clarity feedback.
func (p *ConsolePresenter) OnClarity(c session.ClarityState) {
	p.printf("clarity %3.0f/100 [%s] %s\n", c.Score, c.Language, c.Reasoning)
}

// OnUtterance renders one flushed transcription.
func (p *ConsolePresenter) OnUtterance(u session.Utterance) {
	speaker := "tutor"
	if u.Direction == session.DirectionUser {
		speaker = "you"
	}
	p.printf("%s> %s\n", speaker, u.Text)
}
