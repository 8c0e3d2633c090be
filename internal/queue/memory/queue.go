// Package memory provides the in-process change event queue.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Queue is a bounded in-memory queue with context-aware operations. Each
// monitor publishes in order, so per-sport FIFO holds end to end.
type Queue struct {
	ch      chan scoreboard.ChangeEvent
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan scoreboard.ChangeEvent, capacity),
	}
}

// Publish pushes an event into the queue or returns if the context ends.
func (q *Queue) Publish(ctx context.Context, ev scoreboard.ChangeEvent) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("publish canceled: %w", ctx.Err())
	case q.ch <- ev:
		return nil
	}
}

// Consume pops the next event, respecting context cancellation.
func (q *Queue) Consume(ctx context.Context) (scoreboard.ChangeEvent, error) {
	select {
	case <-ctx.Done():
		return scoreboard.ChangeEvent{}, fmt.Errorf("consume canceled: %w", ctx.Err())
	case ev, ok := <-q.ch:
		if !ok {
			return scoreboard.ChangeEvent{}, errors.New("queue closed")
		}
		return ev, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
