package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrBusClosed = errors.New("event bus closed")

type Handler func(ctx context.Context, event Event) error

// Bus is an in-process Publisher. Each subscriber runs on its own goroutine
// so publishing never blocks on mail delivery. It is used when no Redis is
// available for the task queue.
type Bus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Kind][]Handler
	closed   bool
	wg       sync.WaitGroup
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:   logger,
		handlers: make(map[Kind][]Handler),
	}
}

func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish hands the event to every subscriber of its kind. Subscriber
// errors are logged; they never reach the publisher.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	// Detach from the request so handlers outlive it.
	ctx = context.WithoutCancel(ctx)

	for _, h := range b.handlers[event.Kind()] {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(ctx, event); err != nil {
				b.logger.Error("event handler failed", "kind", event.Kind(), "error", err)
			}
		}(h)
	}
	return nil
}

// Close stops accepting events and waits for running handlers.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
