package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/capture"
	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/internal/live"
	"github.com/mahakjain123456/feynman-mirror/internal/playback"
)

var (
	// ErrNoCredential is returned by Connect when no API key is configured.
	// No state transition happens.
	ErrNoCredential = errors.New("session: no API credential configured")

	// ErrSessionActive is returned by Connect while a session is connecting
	// or connected. At most one session is live at a time.
	ErrSessionActive = errors.New("session: a session is already active")

	// ErrConnectAborted is returned by Connect when Disconnect was called
	// before setup finished.
	ErrConnectAborted = errors.New("session: connect aborted by disconnect")
)

// Presenter receives session events for display. Implementations must not
// block; callbacks arrive from session-internal goroutines.
type Presenter interface {
	OnStateChange(s State)
	OnClarity(state ClarityState)
	OnUtterance(u Utterance)
}

// Manager owns the single live session: the connect/disconnect state machine,
// the capture pipeline, the playback chain and the streaming channel. All
// session resources are created on Connect and torn down on Disconnect, in
// both cases exactly once.
type Manager struct {
	logger    *zap.Logger
	cfg       *config.Config
	dialer    live.Dialer
	pipeline  capture.Pipeline
	outputFn  playback.OutputFactory
	decoder   *playback.Decoder
	presenter Presenter

	mu         sync.Mutex
	state      State
	channel    live.Channel
	queue      *Queue
	scheduler  *playback.Scheduler
	output     playback.Output
	transcript *TranscriptAccumulator
	clarity    ClarityState
}

// NewManager creates a Manager in the Disconnected state.
func NewManager(
	logger *zap.Logger,
	cfg *config.Config,
	dialer live.Dialer,
	pipeline capture.Pipeline,
	outputFn playback.OutputFactory,
	decoder *playback.Decoder,
	presenter Presenter,
) *Manager {
	return &Manager{
		logger:    logger.Named("session"),
		cfg:       cfg,
		dialer:    dialer,
		pipeline:  pipeline,
		outputFn:  outputFn,
		decoder:   decoder,
		presenter: presenter,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Clarity returns the latest clarity feedback received this session.
func (m *Manager) Clarity() ClarityState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.clarity
}

// Transcript returns the full flushed transcript of the current or most
// recent session. Empty before the first connect.
func (m *Manager) Transcript() string {
	m.mu.Lock()
	t := m.transcript
	m.mu.Unlock()

	if t == nil {
		return ""
	}

	return t.Text()
}

// Connect establishes a new session. The audio-only flag is fixed for the
// session's lifetime; changing mode requires disconnect and reconnect. Any
// setup failure moves the manager to the Error state and tears down whatever
// was already acquired.
func (m *Manager) Connect(ctx context.Context, audioOnly bool) error {
	if m.cfg.Gemini.APIKey == "" {
		return ErrNoCredential
	}

	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()

		return ErrSessionActive
	}
	m.state = StateConnecting
	m.mu.Unlock()
	m.notifyState(StateConnecting)

	res, err := m.setup(ctx, audioOnly)
	if err != nil {
		m.logger.Error("Session setup failed", zap.Error(err))
		m.failConnect(res)

		return err
	}

	// Disconnect may have raced the setup; if so the new resources are torn
	// down and never installed.
	m.mu.Lock()
	if m.state != StateConnecting {
		m.mu.Unlock()
		res.teardown(m.logger)

		return ErrConnectAborted
	}
	m.channel = res.channel
	m.queue = res.queue
	m.scheduler = res.scheduler
	m.output = res.output
	m.transcript = res.transcript
	m.clarity = ClarityState{}
	m.state = StateConnected
	m.mu.Unlock()

	// Drain the queue into the channel only once the session is installed;
	// chunks captured during setup were buffered, not lost.
	res.queue.Start(func(msg *live.ClientMessage) {
		if err := res.channel.Send(context.Background(), msg); err != nil &&
			!errors.Is(err, live.ErrChannelClosed) {
			m.logger.Warn("Failed to send outbound frame", zap.Error(err))
		}
	})

	m.notifyState(StateConnected)
	m.logger.Info("Session connected", zap.Bool("audio_only", audioOnly))

	return nil
}

// resources is everything one session owns, in teardown order.
type resources struct {
	pipelineUp bool
	pipeline   capture.Pipeline
	scheduler  *playback.Scheduler
	queue      *Queue
	channel    live.Channel
	output     playback.Output
	transcript *TranscriptAccumulator
}

// teardown releases everything in the fixed order: capture first so nothing
// new is produced, then playback, then the queue, then the transport.
func (r *resources) teardown(logger *zap.Logger) {
	if r == nil {
		return
	}
	if r.pipelineUp {
		r.pipeline.Stop()
	}
	if r.scheduler != nil {
		r.scheduler.StopAll()
	}
	if r.queue != nil {
		r.queue.Close()
	}
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			logger.Debug("Error closing channel", zap.Error(err))
		}
	}
	if r.output != nil {
		if err := r.output.Close(); err != nil {
			logger.Debug("Error closing output", zap.Error(err))
		}
	}
}

// setup acquires devices, opens the playback chain and dials the channel.
// On error the returned resources hold whatever must still be torn down.
func (m *Manager) setup(ctx context.Context, audioOnly bool) (*resources, error) {
	res := &resources{
		pipeline:   m.pipeline,
		queue:      NewQueue(m.logger, m.cfg.Session.OutboundQueueSize),
		transcript: NewTranscriptAccumulator(),
	}

	// Capture devices first: a permission failure should abort before any
	// network traffic happens.
	err := m.pipeline.Start(ctx, audioOnly, func(c capture.Chunk) {
		switch c.Kind {
		case capture.KindAudio:
			res.queue.Push(live.AudioChunk(c.PCM))
		case capture.KindFrame:
			res.queue.Push(live.ImageChunk(c.JPEGBase64))
		}
	})
	if err != nil {
		return res, err
	}
	res.pipelineUp = true

	output, err := m.outputFn()
	if err != nil {
		return res, err
	}
	res.output = output
	res.scheduler = playback.NewScheduler(m.logger, output)

	router := NewRouter(
		m.logger,
		m.decoder,
		res.scheduler,
		res.transcript,
		func(id, name string) { res.queue.Push(live.Ack(id, name)) },
		Events{
			OnClarity:   m.publishClarity,
			OnUtterance: m.presenter.OnUtterance,
		},
	)

	channel, err := m.dialer.Dial(ctx, buildSetup(m.cfg), live.Handlers{
		OnMessage: router.Route,
		OnClose:   m.onRemoteClose,
	})
	if err != nil {
		return res, err
	}
	res.channel = channel

	return res, nil
}

// failConnect tears down a half-built session and records the Error state,
// unless a concurrent Disconnect already returned the manager to Disconnected.
func (m *Manager) failConnect(res *resources) {
	res.teardown(m.logger)

	m.mu.Lock()
	aborted := m.state != StateConnecting
	if !aborted {
		m.state = StateError
	}
	m.mu.Unlock()

	if !aborted {
		m.notifyState(StateError)
	}
}

// Disconnect ends the session. Idempotent and safe from any state, including
// while Connect is still in flight; in that case Connect observes the state
// change and aborts.
func (m *Manager) Disconnect() {
	m.closeSession(StateDisconnected)
}

// onRemoteClose handles a remote-initiated close or transport error. Same
// teardown as Disconnect; the final state reflects whether it was clean.
func (m *Manager) onRemoteClose(err error) {
	if err != nil {
		m.logger.Warn("Session ended by transport error", zap.Error(err))
		m.closeSession(StateError)

		return
	}

	m.logger.Info("Session closed by endpoint")
	m.closeSession(StateDisconnected)
}

func (m *Manager) closeSession(final State) {
	m.mu.Lock()
	if m.state == StateDisconnected || m.state == StateError {
		// Nothing live. Disconnect on a dead session stays silent.
		m.mu.Unlock()

		return
	}

	res := &resources{
		pipelineUp: m.state == StateConnected,
		pipeline:   m.pipeline,
		scheduler:  m.scheduler,
		queue:      m.queue,
		channel:    m.channel,
		output:     m.output,
	}
	m.channel = nil
	m.queue = nil
	m.scheduler = nil
	m.output = nil
	m.state = final
	m.mu.Unlock()

	res.teardown(m.logger)
	m.notifyState(final)
	m.logger.Info("Session closed", zap.Stringer("state", final))
}

// SendText forwards a user-typed message. A silent no-op while disconnected;
// typed text is best-effort by contract.
func (m *Manager) SendText(text string) {
	m.mu.Lock()
	queue := m.queue
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || queue == nil {
		m.logger.Debug("Dropping text while disconnected")

		return
	}

	queue.Push(live.TextMessage(text))
}

// SetAudioOnly degrades the live session to audio-only. Downgrade only; the
// change does not survive reconnect and cannot re-enable video.
func (m *Manager) SetAudioOnly(v bool) {
	m.pipeline.SetAudioOnly(v)
}

func (m *Manager) publishClarity(state ClarityState) {
	m.mu.Lock()
	m.clarity = state
	m.mu.Unlock()

	m.presenter.OnClarity(state)
}

func (m *Manager) notifyState(s State) {
	m.presenter.OnStateChange(s)
}
