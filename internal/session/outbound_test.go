package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mahakjain123456/feynman-mirror/internal/live"
)

func textFrame(s string) *live.ClientMessage {
	return live.TextMessage(s)
}

func TestQueue_BuffersBeforeStart(t *testing.T) {
	q := NewQueue(zaptest.NewLogger(t), 8)

	q.Push(textFrame("a"))
	q.Push(textFrame("b"))
	assert.Equal(t, 2, q.Len())

	var mu sync.Mutex
	var sent []string
	q.Start(func(msg *live.ClientMessage) {
		mu.Lock()
		sent = append(sent, *msg.Text)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(sent) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a", "b"}, sent)
	mu.Unlock()
}

func TestQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQueue(zaptest.NewLogger(t), 3)

	for _, s := range []string{"1", "2", "3", "4", "5"} {
		q.Push(textFrame(s))
	}

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(2), q.Dropped())

	var mu sync.Mutex
	var sent []string
	q.Start(func(msg *live.ClientMessage) {
		mu.Lock()
		sent = append(sent, *msg.Text)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(sent) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"3", "4", "5"}, sent, "newest messages survive, oldest are dropped")
	mu.Unlock()
}

func TestQueue_PushAfterCloseIsIgnored(t *testing.T) {
	q := NewQueue(zaptest.NewLogger(t), 4)

	q.Close()
	q.Push(textFrame("late"))

	assert.Zero(t, q.Len())

	// Idempotent.
	q.Close()
}

func TestQueue_CloseDrainsBufferedMessages(t *testing.T) {
	q := NewQueue(zaptest.NewLogger(t), 4)
	q.Push(textFrame("last words"))
	q.Close()

	var mu sync.Mutex
	var sent []string
	q.Start(func(msg *live.ClientMessage) {
		mu.Lock()
		sent = append(sent, *msg.Text)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(sent) == 1
	}, time.Second, 10*time.Millisecond)
}
