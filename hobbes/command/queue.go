package command

import "sync"

// Queue is an ordered, unbounded, thread-safe command buffer. Producers
// may Enqueue from any goroutine; the consumer removes everything at
// once with DrainAll. Insertion order is preserved per producer.
type Queue struct {
	mu    sync.Mutex
	items []Command
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a command to the tail. It never blocks and never fails.
func (q *Queue) Enqueue(c Command) {
	q.mu.Lock()
	q.items = append(q.items, c)
	q.mu.Unlock()
}

// DrainAll atomically removes and returns every queued command in
// insertion order, leaving the queue empty. Safe to call concurrently
// with Enqueue.
func (q *Queue) DrainAll() []Command {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len returns the number of currently queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
