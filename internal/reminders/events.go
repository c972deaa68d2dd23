package reminders

import "sync"

// BannerEvent is broadcast once per evaluation tick that found due
// medications. UI banners consume it independently of the native
// notification; there is no acknowledgment channel back.
type BannerEvent struct {
	MedicationNames string
}

// BannerBus fans BannerEvents out to subscribers.
type BannerBus struct {
	mu   sync.Mutex
	subs map[int]chan BannerEvent
	next int
}

func NewBannerBus() *BannerBus {
	return &BannerBus{subs: make(map[int]chan BannerEvent)}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. The channel is buffered; events a slow listener cannot keep up
// with are dropped rather than blocking the publisher.
func (b *BannerBus) Subscribe() (<-chan BannerEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan BannerEvent, 4)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *BannerBus) Publish(ev BannerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
