package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/pkg/audio"
)

// portAudioDevices opens real hardware through PortAudio. The audio runtime
// must be initialized before Acquire is called.
type portAudioDevices struct {
	logger *zap.Logger
	cfg    *config.Config
}

// NewDevices creates a Devices backed by the default PortAudio input. There
// is no camera backend, so sessions that want video must be degraded to
// audio-only by the caller or fail here.
func NewDevices(logger *zap.Logger, cfg *config.Config) Devices {
	return &portAudioDevices{
		logger: logger.Named("devices"),
		cfg:    cfg,
	}
}

func (d *portAudioDevices) Acquire(ctx context.Context, audioOnly bool) (Microphone, Camera, error) {
	if !audioOnly {
		return nil, nil, ErrNoCamera
	}

	mic := &portAudioMicrophone{
		logger:    d.logger.Named("microphone"),
		blockSize: d.cfg.Capture.BlockSize,
	}

	return mic, nil, nil
}

// portAudioMicrophone reads fixed-size blocks from the default input device
// and forwards them to the tap as normalized float32 samples.
type portAudioMicrophone struct {
	logger    *zap.Logger
	blockSize int

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
}

func (m *portAudioMicrophone) Start(tap func(samples []float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	in := make([]int16, m.blockSize)
	stream, err := portaudio.OpenDefaultStream(
		audio.CaptureChannels, 0, float64(audio.CaptureSampleRate), m.blockSize, in)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()

		return fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream
	m.running = true
	m.logger.Info("Microphone stream opened",
		zap.Int("sample_rate", audio.CaptureSampleRate),
		zap.Int("block_size", m.blockSize))

	go m.readLoop(stream, in, tap)

	return nil
}

func (m *portAudioMicrophone) readLoop(stream *portaudio.Stream, in []int16, tap func([]float32)) {
	for {
		m.mu.Lock()
		running := m.running && m.stream == stream
		m.mu.Unlock()
		if !running {
			return
		}

		if err := stream.Read(); err != nil {
			// Transient overflows happen under load; back off briefly.
			m.logger.Debug("Input stream read error", zap.Error(err))
			time.Sleep(10 * time.Millisecond)

			continue
		}

		samples := make([]float32, len(in))
		for i, s := range in {
			samples[i] = float32(s) / 32768
		}

		tap(samples)
	}
}

func (m *portAudioMicrophone) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false

	if err := m.stream.Stop(); err != nil {
		m.logger.Warn("Error stopping input stream", zap.Error(err))
	}
	if err := m.stream.Close(); err != nil {
		m.logger.Warn("Error closing input stream", zap.Error(err))
	}
	m.stream = nil
}
