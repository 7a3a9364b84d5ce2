package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/pkg/audio"
)

// renderBlockSize is the per-callback frame count requested from the device.
const renderBlockSize = 512

// ErrOutputClosed is returned by Play after the output context is closed.
var ErrOutputClosed = errors.New("playback: output closed")

// NewOutputFactory returns a factory that opens the default output device at
// the fixed output sample rate. The audio runtime must be initialized before
// the factory is invoked.
func NewOutputFactory(logger *zap.Logger) OutputFactory {
	return func() (Output, error) {
		return newPortAudioOutput(logger)
	}
}

type scheduledBuffer struct {
	samples []float32
	start   int64 // absolute sample position on the output clock
	pos     int
	stopped bool
	done    func()
}

type paHandle struct {
	out *portAudioOutput
	buf *scheduledBuffer
}

// Stop marks the buffer stopped. Safe to call on a finished handle.
func (h *paHandle) Stop() {
	h.out.mu.Lock()
	h.buf.stopped = true
	h.out.mu.Unlock()
}

// portAudioOutput renders scheduled buffers through the default speaker. The
// output clock is the count of samples rendered since the stream opened, so
// it advances monotonically with the hardware.
type portAudioOutput struct {
	logger *zap.Logger
	stream *portaudio.Stream

	mu      sync.Mutex
	closed  bool
	elapsed int64
	items   []*scheduledBuffer
}

func newPortAudioOutput(logger *zap.Logger) (*portAudioOutput, error) {
	o := &portAudioOutput{logger: logger.Named("output")}

	stream, err := portaudio.OpenDefaultStream(
		0, audio.OutputChannels, float64(audio.OutputSampleRate), renderBlockSize, o.render)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()

		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	o.stream = stream
	logger.Info("Output context opened",
		zap.Int("sample_rate", audio.OutputSampleRate))

	return o, nil
}

func (o *portAudioOutput) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	return audio.Duration(int(o.elapsed), audio.OutputSampleRate)
}

func (o *portAudioOutput) Play(samples []float32, startAt time.Duration, done func()) (Handle, error) {
	start := int64(startAt) * int64(audio.OutputSampleRate) / int64(time.Second)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrOutputClosed
	}

	buf := &scheduledBuffer{samples: samples, start: start, done: done}
	o.items = append(o.items, buf)

	return &paHandle{out: o, buf: buf}, nil
}

func (o *portAudioOutput) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()

		return nil
	}
	o.closed = true
	o.items = nil
	o.mu.Unlock()

	if err := o.stream.Stop(); err != nil {
		o.logger.Warn("Error stopping output stream", zap.Error(err))
	}

	return o.stream.Close()
}

// render is the device callback. It mixes every live buffer that overlaps the
// current block into the output and fires completion callbacks for buffers
// that played to their natural end.
func (o *portAudioOutput) render(out []float32) {
	var finished []func()

	o.mu.Lock()
	base := o.elapsed
	for i := range out {
		out[i] = 0
	}

	kept := o.items[:0]
	for _, it := range o.items {
		if it.stopped {
			continue
		}

		offset := it.start + int64(it.pos) - base
		if offset >= int64(len(out)) {
			kept = append(kept, it)

			continue
		}

		idx := 0
		if offset > 0 {
			idx = int(offset)
		}
		for idx < len(out) && it.pos < len(it.samples) {
			out[idx] += it.samples[it.pos]
			idx++
			it.pos++
		}

		if it.pos >= len(it.samples) {
			if it.done != nil {
				finished = append(finished, it.done)
			}
		} else {
			kept = append(kept, it)
		}
	}
	o.items = kept
	o.elapsed += int64(len(out))
	o.mu.Unlock()

	// Completion callbacks run outside the lock; they re-enter the scheduler.
	for _, fn := range finished {
		fn()
	}
}
