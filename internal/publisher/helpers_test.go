package publisher

import (
	"sync"

	"tgpublish/internal/eventbus"
)

// captureBus records published events for assertions.
type captureBus struct {
	mu  sync.Mutex
	evs []eventbus.Event
}

func newCaptureBus() *captureBus { return &captureBus{} }

func (b *captureBus) Publish(e eventbus.Event) {
	b.mu.Lock()
	b.evs = append(b.evs, e)
	b.mu.Unlock()
}

func (b *captureBus) Subscribe(buffer int) (<-chan eventbus.Event, func()) {
	ch := make(chan eventbus.Event)
	close(ch)
	return ch, func() {}
}

func (b *captureBus) events() []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]eventbus.Event(nil), b.evs...)
}

// fixedRand always returns the same value, pinning gap jitter.
type fixedRand struct{ v int64 }

func (r fixedRand) Int63n(n int64) int64 {
	if r.v >= n {
		return n - 1
	}
	return r.v
}
