package realtime

import (
	"context"
	"sync"
)

// Broker carries broadcast envelopes between server instances. Delivery is
// at-least-once with no crossing-channel ordering guarantee; receivers
// resynchronize from durable state when it matters.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
	Close() error
}

// MemoryBroker is the in-process Broker used when no Redis is configured
// (single instance) and in tests.
type MemoryBroker struct {
	mu       sync.Mutex
	handlers map[string][]func(payload []byte)
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{handlers: make(map[string][]func(payload []byte))}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	handlers := make([]func([]byte), len(b.handlers[channel]))
	copy(handlers, b.handlers[channel])
	b.mu.Unlock()
	for _, handler := range handlers {
		handler(payload)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, channel string, handler func(payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = append(b.handlers[channel], handler)
	return nil
}

func (b *MemoryBroker) Close() error { return nil }
