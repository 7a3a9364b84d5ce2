package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/live"
)

// Queue is the best-effort outbound message buffer between the capture
// producers and the channel writer. Push never blocks: capture runs at the
// device's native cadence and cannot wait on the network. When the buffer is
// full the oldest message is dropped, on the grounds that stale media is
// worthless to a real-time session.
type Queue struct {
	logger   *zap.Logger
	capacity int

	mu      sync.Mutex
	cond    *sync.Cond
	items   []*live.ClientMessage
	closed  bool
	dropped uint64
}

// NewQueue creates a Queue with the given capacity. Messages pushed before
// Start are buffered, so the queue can be wired up before the channel opens.
func NewQueue(logger *zap.Logger, capacity int) *Queue {
	q := &Queue{
		logger:   logger.Named("outbound"),
		capacity: capacity,
	}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Push enqueues one message, dropping the oldest buffered message if the
// queue is full. Pushing to a closed queue is a no-op.
func (q *Queue) Push(msg *live.ClientMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.dropped++
		if q.dropped%100 == 1 {
			q.logger.Warn("Outbound queue full, dropping oldest",
				zap.Uint64("total_dropped", q.dropped))
		}
	}

	q.items = append(q.items, msg)
	q.cond.Signal()
}

// Start launches the drain goroutine, delivering buffered and future messages
// to send in push order. Call at most once, after the transport is ready.
func (q *Queue) Start(send func(msg *live.ClientMessage)) {
	go func() {
		for {
			q.mu.Lock()
			for len(q.items) == 0 && !q.closed {
				q.cond.Wait()
			}
			if len(q.items) == 0 {
				q.mu.Unlock()

				return
			}
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()

			send(msg)
		}
	}()
}

// Close stops the queue. Buffered messages still drain; further pushes are
// discarded. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()

	if q.dropped > 0 {
		q.logger.Info("Outbound queue closed",
			zap.Uint64("total_dropped", q.dropped))
	}
}

// Len returns the number of buffered messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Dropped returns the number of messages discarded under overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}
