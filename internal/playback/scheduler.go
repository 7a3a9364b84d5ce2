package playback

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/pkg/audio"
)

// ErrSchedulerClosed is returned by Enqueue after StopAll; a decode that
// completes after teardown must not schedule playback.
var ErrSchedulerClosed = errors.New("playback: scheduler closed")

// Handle is one scheduled playback unit. Stop is idempotent and is a no-op on
// a handle that has already finished.
type Handle interface {
	Stop()
}

// Output abstracts the audio-output context: its monotonic clock and scheduled
// buffer playback. The done callback fires asynchronously when the buffer
// finishes playing naturally; it is not invoked after Stop.
type Output interface {
	Now() time.Duration
	Play(samples []float32, startAt time.Duration, done func()) (Handle, error)
	Close() error
}

// OutputFactory opens a fresh output context for one session.
type OutputFactory func() (Output, error)

// Scheduler places decoded buffers back-to-back on the output clock. The
// nextStart cursor is monotonically non-decreasing for the scheduler's
// lifetime, so chunks enqueued in arrival order never overlap and never leave
// a gap, regardless of decode completion timing.
type Scheduler struct {
	logger *zap.Logger
	out    Output

	mu        sync.Mutex
	closed    bool
	nextStart time.Duration
	nextID    uint64
	active    map[uint64]Handle
}

// NewScheduler creates a Scheduler over the given output context with the
// cursor at zero.
func NewScheduler(logger *zap.Logger, out Output) *Scheduler {
	return &Scheduler{
		logger: logger.Named("scheduler"),
		out:    out,
		active: make(map[uint64]Handle),
	}
}

// Enqueue schedules one decoded buffer at max(nextStart, output clock) and
// advances the cursor by the buffer duration. Returns the scheduled start.
func (s *Scheduler) Enqueue(samples []float32) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSchedulerClosed
	}

	startAt := s.nextStart
	if now := s.out.Now(); now > startAt {
		startAt = now
	}

	id := s.nextID
	s.nextID++

	handle, err := s.out.Play(samples, startAt, func() { s.remove(id) })
	if err != nil {
		return 0, err
	}

	s.active[id] = handle
	s.nextStart = startAt + audio.Duration(len(samples), audio.OutputSampleRate)

	s.logger.Debug("Scheduled playback chunk",
		zap.Uint64("id", id),
		zap.Duration("start_at", startAt),
		zap.Duration("next_start", s.nextStart),
		zap.Int("samples", len(samples)))

	return startAt, nil
}

// NextStart returns the current cursor position.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextStart
}

// ActiveCount returns the number of in-flight playback handles.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.active)
}

// StopActive forcibly stops every in-flight handle without closing the
// scheduler; the cursor is left untouched so it stays monotonic. Used when
// the model interrupts its own output.
func (s *Scheduler) StopActive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopAllLocked()
}

// StopAll stops every in-flight handle, clears the active set and closes the
// scheduler. Further Enqueue calls fail with ErrSchedulerClosed.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopAllLocked()
}

func (s *Scheduler) stopAllLocked() {
	for id, handle := range s.active {
		// Stopping an already-finished handle is a no-op by contract.
		handle.Stop()
		delete(s.active, id)
	}
}

func (s *Scheduler) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, id)
}
