package logger

import "sync"

const subscriberBuffer = 256

// bus fans published lines out to subscribers. Slow subscribers miss
// messages rather than block logging.
type bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan []byte
}

func newBus() *bus {
	return &bus{subs: map[int]chan []byte{}}
}

func (b *bus) subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

func (b *bus) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *bus) publish(msg []byte) {
	if len(msg) == 0 {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

var defaultBus = newBus()

// Subscribe returns a channel of JSON encoded log events and a cancel func
// that closes it.
func Subscribe() (<-chan []byte, func()) {
	return defaultBus.subscribe()
}
