package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/pkg/audio"
)

// ErrPipelineRunning is returned by Start when the pipeline is already live.
var ErrPipelineRunning = errors.New("capture: pipeline already running")

// Kind discriminates pipeline output chunks.
type Kind int

const (
	KindAudio Kind = iota
	KindFrame
)

// Chunk is one unit of captured media. Audio chunks carry raw 16-bit LE PCM;
// frame chunks carry a base64 JPEG.
type Chunk struct {
	Kind       Kind
	PCM        []byte
	JPEGBase64 string
}

// Sink receives captured chunks. It is called from device goroutines and must
// never block; overflow policy belongs to the sink.
type Sink func(Chunk)

// Pipeline drives one session's capture: a continuous microphone tap plus a
// fixed-cadence frame sampler. Media flows one way only; nothing downstream
// can push back into the devices.
type Pipeline interface {
	// Start acquires devices and begins feeding the sink. In audio-only mode
	// no camera is opened; a missing camera in video mode is a fatal error.
	Start(ctx context.Context, audioOnly bool, sink Sink) error
	// SetAudioOnly degrades the pipeline to audio-only. One-way: passing
	// false after a downgrade does not bring video back.
	SetAudioOnly(v bool)
	// AudioOnly reports whether frame sampling is currently suppressed.
	AudioOnly() bool
	// Stop halts capture and releases both devices. Idempotent.
	Stop()
}

type pipeline struct {
	logger  *zap.Logger
	cfg     *config.Config
	devices Devices

	// audioOnly only ever transitions false -> true for the pipeline's
	// lifetime; video never resumes mid-session.
	audioOnly atomic.Bool

	mu      sync.Mutex
	running bool
	mic     Microphone
	cam     Camera
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPipeline creates a Pipeline over the given device backend.
func NewPipeline(logger *zap.Logger, cfg *config.Config, devices Devices) Pipeline {
	return &pipeline{
		logger:  logger.Named("pipeline"),
		cfg:     cfg,
		devices: devices,
	}
}

// Start acquires devices and begins feeding the sink. In audio-only mode no
// camera is opened. A missing camera in video mode is a fatal error; the
// caller decides whether to retry in audio-only mode.
func (p *pipeline) Start(ctx context.Context, audioOnly bool, sink Sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPipelineRunning
	}

	mic, cam, err := p.devices.Acquire(ctx, audioOnly)
	if err != nil {
		return err
	}

	p.audioOnly.Store(audioOnly)

	if err := mic.Start(func(samples []float32) {
		sink(Chunk{Kind: KindAudio, PCM: audio.EncodeFloat32(samples)})
	}); err != nil {
		if cam != nil {
			cam.Stop()
		}

		return err
	}

	p.mic = mic
	p.cam = cam
	p.stopCh = make(chan struct{})
	p.running = true

	if cam != nil {
		p.wg.Add(1)
		go p.sampleFrames(cam, sink, p.stopCh)
	}

	p.logger.Info("Capture pipeline started", zap.Bool("audio_only", audioOnly))

	return nil
}

// SetAudioOnly degrades the pipeline to audio-only. The transition is one-way:
// passing false after a downgrade does not bring video back.
func (p *pipeline) SetAudioOnly(v bool) {
	if !v {
		return
	}

	if p.audioOnly.CompareAndSwap(false, true) {
		p.logger.Info("Pipeline degraded to audio-only")
	}
}

// AudioOnly reports whether frame sampling is currently suppressed.
func (p *pipeline) AudioOnly() bool {
	return p.audioOnly.Load()
}

// sampleFrames emits one compressed frame per tick. Ticks are skipped, not
// queued: a downgraded pipeline or a camera with no frame yet produces
// nothing for that interval.
func (p *pipeline) sampleFrames(cam Camera, sink Sink, stopCh chan struct{}) {
	defer p.wg.Done()

	interval := time.Duration(p.cfg.Capture.FrameIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if p.audioOnly.Load() {
				continue
			}

			frame, ok := cam.Frame()
			if !ok {
				continue
			}

			encoded, err := CompressFrame(frame, p.cfg.Capture.JPEGQuality)
			if err != nil {
				p.logger.Warn("Dropping unencodable frame", zap.Error(err))

				continue
			}

			sink(Chunk{Kind: KindFrame, JPEGBase64: encoded})
		}
	}
}

// Stop halts capture and releases both devices. Idempotent.
func (p *pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false

	close(p.stopCh)
	p.wg.Wait()

	p.mic.Stop()
	p.mic = nil
	if p.cam != nil {
		p.cam.Stop()
		p.cam = nil
	}

	p.logger.Info("Capture pipeline stopped")
}
