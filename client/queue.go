package client

import (
	"sync"

	"daw-bridge/message"
)

// DefaultQueueCap bounds the outbound queue of commands accumulated while
// the host is unreachable.
const DefaultQueueCap = 32

// outboundQueue is a bounded FIFO of commands awaiting send while
// disconnected. When full, the oldest command is dropped first, so memory
// stays bounded under prolonged outages. It has its own lock so Status can
// read the size without waiting behind an in-flight command.
type outboundQueue struct {
	mu  sync.Mutex
	cap int
	buf []*message.Command
}

func newOutboundQueue(capacity int) *outboundQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &outboundQueue{cap: capacity}
}

// push appends a command, evicting the oldest when at capacity.
// Reports whether an eviction happened.
func (q *outboundQueue) push(cmd *message.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	evicted := false
	if len(q.buf) >= q.cap {
		copy(q.buf, q.buf[1:])
		q.buf = q.buf[:len(q.buf)-1]
		evicted = true
	}
	q.buf = append(q.buf, cmd)
	return evicted
}

// pop removes and returns the oldest command, or nil when empty.
func (q *outboundQueue) pop() *message.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	cmd := q.buf[0]
	q.buf = q.buf[1:]
	return cmd
}

// requeue puts a command back at the front after a failed replay.
func (q *outboundQueue) requeue(cmd *message.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append([]*message.Command{cmd}, q.buf...)
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
