package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mahakjain123456/feynman-mirror/internal/capture"
	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/internal/live"
	"github.com/mahakjain123456/feynman-mirror/internal/playback"
)

type fakePipeline struct {
	mu        sync.Mutex
	running   bool
	stops     int
	startErr  error
	audioOnly bool
	sink      capture.Sink
}

func (p *fakePipeline) Start(_ context.Context, audioOnly bool, sink capture.Sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startErr != nil {
		return p.startErr
	}
	p.running = true
	p.audioOnly = audioOnly
	p.sink = sink

	return nil
}

func (p *fakePipeline) SetAudioOnly(v bool) {
	if !v {
		return
	}
	p.mu.Lock()
	p.audioOnly = true
	p.mu.Unlock()
}

func (p *fakePipeline) AudioOnly() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.audioOnly
}

func (p *fakePipeline) Stop() {
	p.mu.Lock()
	p.running = false
	p.stops++
	p.mu.Unlock()
}

func (p *fakePipeline) emit(c capture.Chunk) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	sink(c)
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []*live.ClientMessage
	closed bool
}

func (c *fakeChannel) Send(_ context.Context, msg *live.ClientMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return live.ErrChannelClosed
	}
	c.sent = append(c.sent, msg)

	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

func (c *fakeChannel) sentFrames() []*live.ClientMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*live.ClientMessage(nil), c.sent...)
}

type fakeDialer struct {
	mu       sync.Mutex
	channel  *fakeChannel
	handlers live.Handlers
	dialErr  error
	dials    int
}

func (d *fakeDialer) Dial(_ context.Context, _ *live.Setup, handlers live.Handlers) (live.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	d.channel = &fakeChannel{}
	d.handlers = handlers

	return d.channel, nil
}

type nullHandle struct{}

func (nullHandle) Stop() {}

type nullOutput struct {
	mu     sync.Mutex
	closed bool
}

func (o *nullOutput) Now() time.Duration { return 0 }

func (o *nullOutput) Play(_ []float32, _ time.Duration, _ func()) (playback.Handle, error) {
	return nullHandle{}, nil
}

func (o *nullOutput) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	return nil
}

type fakePresenter struct {
	mu         sync.Mutex
	states     []State
	clarities  []ClarityState
	utterances []Utterance
}

func (p *fakePresenter) OnStateChange(s State) {
	p.mu.Lock()
	p.states = append(p.states, s)
	p.mu.Unlock()
}

func (p *fakePresenter) OnClarity(c ClarityState) {
	p.mu.Lock()
	p.clarities = append(p.clarities, c)
	p.mu.Unlock()
}

func (p *fakePresenter) OnUtterance(u Utterance) {
	p.mu.Lock()
	p.utterances = append(p.utterances, u)
	p.mu.Unlock()
}

func (p *fakePresenter) stateLog() []State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]State(nil), p.states...)
}

type managerFixture struct {
	manager   *Manager
	pipeline  *fakePipeline
	dialer    *fakeDialer
	output    *nullOutput
	presenter *fakePresenter
}

func newManagerFixture(t *testing.T, apiKey string) *managerFixture {
	t.Helper()

	f := &managerFixture{
		pipeline:  &fakePipeline{},
		dialer:    &fakeDialer{},
		output:    &nullOutput{},
		presenter: &fakePresenter{},
	}

	cfg := &config.Config{}
	cfg.Gemini.APIKey = apiKey
	cfg.Gemini.Model = "test-model"
	cfg.Gemini.Voice = "Puck"
	cfg.Session.OutboundQueueSize = 16

	logger := zaptest.NewLogger(t)
	f.manager = NewManager(
		logger,
		cfg,
		f.dialer,
		f.pipeline,
		func() (playback.Output, error) { return f.output, nil },
		playback.NewDecoder(logger),
		f.presenter,
	)

	return f
}

func TestManager_ConnectWithoutCredential(t *testing.T) {
	f := newManagerFixture(t, "")

	err := f.manager.Connect(context.Background(), true)

	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, StateDisconnected, f.manager.State())
	assert.Empty(t, f.presenter.stateLog(), "no state transition on missing credential")
}

func TestManager_ConnectSuccess(t *testing.T) {
	f := newManagerFixture(t, "key")

	require.NoError(t, f.manager.Connect(context.Background(), true))
	defer f.manager.Disconnect()

	assert.Equal(t, StateConnected, f.manager.State())
	assert.Equal(t, []State{StateConnecting, StateConnected}, f.presenter.stateLog())
	assert.True(t, f.pipeline.AudioOnly())
	assert.Equal(t, 1, f.dialer.dials)
}

func TestManager_ConnectWhileActive(t *testing.T) {
	f := newManagerFixture(t, "key")

	require.NoError(t, f.manager.Connect(context.Background(), true))
	defer f.manager.Disconnect()

	assert.ErrorIs(t, f.manager.Connect(context.Background(), true), ErrSessionActive)
}

func TestManager_DeviceFailureAbortsBeforeDial(t *testing.T) {
	f := newManagerFixture(t, "key")
	f.pipeline.startErr = capture.ErrNoCamera

	err := f.manager.Connect(context.Background(), false)

	assert.ErrorIs(t, err, capture.ErrNoCamera)
	assert.Equal(t, StateError, f.manager.State())
	assert.Zero(t, f.dialer.dials, "no network traffic after a device failure")
}

func TestManager_DialFailure(t *testing.T) {
	f := newManagerFixture(t, "key")
	f.dialer.dialErr = errors.New("endpoint unreachable")

	err := f.manager.Connect(context.Background(), true)

	require.Error(t, err)
	assert.Equal(t, StateError, f.manager.State())
	assert.Equal(t, 1, f.pipeline.stops, "acquired devices are released on failure")
	assert.True(t, f.output.closed)
}

func TestManager_ConnectAgainAfterError(t *testing.T) {
	f := newManagerFixture(t, "key")
	f.dialer.dialErr = errors.New("endpoint unreachable")
	require.Error(t, f.manager.Connect(context.Background(), true))

	f.dialer.dialErr = nil
	require.NoError(t, f.manager.Connect(context.Background(), true))
	defer f.manager.Disconnect()

	assert.Equal(t, StateConnected, f.manager.State())
}

func TestManager_DisconnectIsIdempotent(t *testing.T) {
	f := newManagerFixture(t, "key")

	// Safe before any connect.
	f.manager.Disconnect()
	assert.Equal(t, StateDisconnected, f.manager.State())

	require.NoError(t, f.manager.Connect(context.Background(), true))
	f.manager.Disconnect()
	f.manager.Disconnect()

	assert.Equal(t, StateDisconnected, f.manager.State())
	assert.Equal(t, 1, f.pipeline.stops)
	assert.True(t, f.dialer.channel.closed)
	assert.True(t, f.output.closed)
}

func TestManager_RemoteClose(t *testing.T) {
	tests := map[string]struct {
		closeErr  error
		wantState State
	}{
		"clean close":     {closeErr: nil, wantState: StateDisconnected},
		"transport error": {closeErr: errors.New("connection reset"), wantState: StateError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newManagerFixture(t, "key")
			require.NoError(t, f.manager.Connect(context.Background(), true))

			f.dialer.handlers.OnClose(tc.closeErr)

			assert.Equal(t, tc.wantState, f.manager.State())
			assert.Equal(t, 1, f.pipeline.stops)
		})
	}
}

func TestManager_SendTextWhileDisconnected(t *testing.T) {
	f := newManagerFixture(t, "key")

	// Silent no-op, not an error.
	f.manager.SendText("am I stuck?")
	assert.Equal(t, StateDisconnected, f.manager.State())
}

func TestManager_SendTextDelivered(t *testing.T) {
	f := newManagerFixture(t, "key")
	require.NoError(t, f.manager.Connect(context.Background(), true))
	defer f.manager.Disconnect()

	f.manager.SendText("I think I'm stuck")

	require.Eventually(t, func() bool {
		return len(f.dialer.channel.sentFrames()) == 1
	}, time.Second, 10*time.Millisecond)

	frame := f.dialer.channel.sentFrames()[0]
	require.NotNil(t, frame.Text)
	assert.Equal(t, "I think I'm stuck", *frame.Text)
}

func TestManager_CaptureChunksFlowToChannel(t *testing.T) {
	f := newManagerFixture(t, "key")
	require.NoError(t, f.manager.Connect(context.Background(), true))
	defer f.manager.Disconnect()

	f.pipeline.emit(capture.Chunk{Kind: capture.KindAudio, PCM: []byte{0x01, 0x02}})
	f.pipeline.emit(capture.Chunk{Kind: capture.KindFrame, JPEGBase64: "anBlZw=="})

	require.Eventually(t, func() bool {
		return len(f.dialer.channel.sentFrames()) == 2
	}, time.Second, 10*time.Millisecond)

	frames := f.dialer.channel.sentFrames()
	require.NotNil(t, frames[0].Media)
	assert.Equal(t, live.MimeAudioPCM16k, frames[0].Media.MimeType)
	require.NotNil(t, frames[1].Media)
	assert.Equal(t, live.MimeImageJPEG, frames[1].Media.MimeType)
}

func TestManager_ToolCallAckedEndToEnd(t *testing.T) {
	f := newManagerFixture(t, "key")
	require.NoError(t, f.manager.Connect(context.Background(), true))
	defer f.manager.Disconnect()

	args, err := json.Marshal(map[string]any{
		"score": 42.0, "reasoning": "too much jargon", "language": "English",
	})
	require.NoError(t, err)

	f.dialer.handlers.OnMessage(&live.ServerMessage{ToolCall: &live.ToolCall{
		FunctionCalls: []live.FunctionCall{{ID: "inv-1", Name: ToolUpdateClarity, Args: args}},
	}})

	assert.Equal(t, ClarityState{Score: 42, Reasoning: "too much jargon", Language: "English"},
		f.manager.Clarity())

	require.Eventually(t, func() bool {
		return len(f.dialer.channel.sentFrames()) == 1
	}, time.Second, 10*time.Millisecond)

	frame := f.dialer.channel.sentFrames()[0]
	require.NotNil(t, frame.FunctionResponses)
	assert.Equal(t, "inv-1", frame.FunctionResponses.ID)
	assert.Equal(t, "ok", frame.FunctionResponses.Response.Result)
}

func TestManager_TranscriptAvailableAfterDisconnect(t *testing.T) {
	f := newManagerFixture(t, "key")
	require.NoError(t, f.manager.Connect(context.Background(), true))

	f.dialer.handlers.OnMessage(&live.ServerMessage{ServerContent: &live.ServerContent{
		InputTranscription: &live.Transcription{Text: "entropy always grows"},
	}})
	f.dialer.handlers.OnMessage(&live.ServerMessage{ServerContent: &live.ServerContent{
		TurnComplete: true,
	}})
	f.manager.Disconnect()

	assert.Equal(t, "Student: entropy always grows\n", f.manager.Transcript())
}
