package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DefaultQueueDepth is the number of messages a queue holds
const DefaultQueueDepth = 50

// QueueStats reports queue throughput and occupancy
type QueueStats struct {
	Sent     uint64
	Dropped  uint64
	Len      int
	Capacity int
}

// Queue is a fixed-capacity FIFO of messages. TrySend never blocks and
// rejects the newest message when the queue is full. Any number of
// goroutines may receive.
type Queue struct {
	ch        chan Message
	done      chan struct{}
	closeOnce sync.Once

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewQueue returns a queue with room for depth messages.
// A depth below 1 uses DefaultQueueDepth.
func NewQueue(depth int) *Queue {
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	return &Queue{
		ch:   make(chan Message, depth),
		done: make(chan struct{}),
	}
}

// TrySend enqueues msg if there is room. It returns false when the queue is
// full or closed.
func (q *Queue) TrySend(msg Message) bool {
	select {
	case <-q.done:
		q.dropped.Inc()
		return false
	default:
	}

	select {
	case q.ch <- msg:
		q.sent.Inc()
		return true
	default:
		q.dropped.Inc()
		return false
	}
}

// Receive waits up to timeout for a message. A timeout of zero or less polls.
func (q *Queue) Receive(timeout time.Duration) (Message, error) {
	if timeout <= 0 {
		select {
		case msg := <-q.ch:
			return msg, nil
		default:
		}
		if q.isClosed() {
			return Message{}, ErrQueueClosed
		}
		return Message{}, ErrTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		return msg, nil
	case <-q.done:
		return q.drain()
	case <-timer.C:
		return Message{}, ErrTimeout
	}
}

// ReceiveContext waits for a message until ctx is done
func (q *Queue) ReceiveContext(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-q.done:
		return q.drain()
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// drain hands out what is left after Close
func (q *Queue) drain() (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	default:
		return Message{}, ErrQueueClosed
	}
}

// Close stops accepting messages. Receivers still get the queued messages,
// then ErrQueueClosed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Len returns the number of queued messages
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity
func (q *Queue) Cap() int { return cap(q.ch) }

// Stats returns the queue counters
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Sent:     q.sent.Load(),
		Dropped:  q.dropped.Load(),
		Len:      len(q.ch),
		Capacity: cap(q.ch),
	}
}
