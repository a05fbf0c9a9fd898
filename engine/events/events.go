// Package events implements the ordered notification queue between the quest
// ledger and its observers. Publishing only appends; delivery happens when the
// owner flushes, so observers never run inside a ledger mutation.
package events

import (
	"sync"

	"github.com/nathoo/parley/types"
)

// Handler receives notifications in publish order.
type Handler func(types.Notification)

// Queue is a FIFO of notifications with sequence numbers assigned at publish
// time. It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	seq      uint64
	pending  []types.Notification
	handlers []Handler

	deliver sync.Mutex // serializes Flush so deliveries never interleave
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Publish appends a notification and returns it with its sequence number.
func (q *Queue) Publish(kind types.NotificationKind, quest types.Quest) types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	n := types.Notification{Seq: q.seq, Kind: kind, Quest: quest}
	q.pending = append(q.pending, n)
	return n
}

// Subscribe registers a handler invoked by Flush. Handlers run in
// registration order for each notification.
func (q *Queue) Subscribe(h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, h)
}

// Len returns the number of undelivered notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain removes and returns all pending notifications without invoking
// handlers.
func (q *Queue) Drain() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Flush drains the queue and delivers every notification to all handlers,
// oldest first. It returns what was delivered.
func (q *Queue) Flush() []types.Notification {
	q.deliver.Lock()
	defer q.deliver.Unlock()

	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	handlers := make([]Handler, len(q.handlers))
	copy(handlers, q.handlers)
	q.mu.Unlock()

	for _, n := range batch {
		for _, h := range handlers {
			h(n)
		}
	}
	return batch
}
