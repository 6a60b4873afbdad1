package feed

import (
	"encoding/json"
	"sync"
	"time"
)

// Message is a single feed message as delivered by the exchange. Raw
// holds the untouched JSON payload; Type and ProductID are extracted
// so consumers can route without a full decode.
type Message struct {
	Type      string          `json:"type"`
	ProductID string          `json:"product_id"`
	Raw       json.RawMessage `json:"-"`
	Received  time.Time       `json:"-"`
}

// DefaultBufferSize bounds a session's message backlog when no
// explicit size is configured.
const DefaultBufferSize = 1000

// Buffer is a thread-safe FIFO that holds at most size messages,
// evicting its oldest entry when a new message arrives at capacity.
// A slow consumer therefore loses the oldest data first instead of
// growing the process without bound.
type Buffer struct {
	mu    sync.Mutex
	size  int
	queue []Message
}

// NewBuffer creates a buffer bounded to the given size. Sizes below
// one fall back to DefaultBufferSize.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = DefaultBufferSize
	}
	return &Buffer{
		size:  size,
		queue: make([]Message, 0, size),
	}
}

// Add appends a message, evicting the oldest entry if the buffer is
// at capacity.
func (b *Buffer) Add(m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == b.size {
		b.queue = b.queue[1:]
	}
	b.queue = append(b.queue, m)
}

// Pop removes and returns the oldest message, or a false sentinel if
// the buffer is empty.
func (b *Buffer) Pop() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return Message{}, false
	}
	m := b.queue[0]
	b.queue = b.queue[1:]
	return m, true
}

// Messages returns a copy of the buffered messages, oldest first,
// without consuming them.
func (b *Buffer) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.queue...)
}

// Drain removes and returns all buffered messages, oldest first.
func (b *Buffer) Drain() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = make([]Message, 0, b.size)
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Cap returns the maximum number of messages the buffer retains.
func (b *Buffer) Cap() int {
	return b.size
}
