package viewstate

import "sync"

// Observable holds the latest value of a slot and notifies subscribers.
// Each subscriber has a one-element buffer: a slow reader skips
// intermediate values and only ever sees the most recent one.
type Observable[T any] struct {
	mu      sync.RWMutex
	value   T
	set     bool
	version uint64
	subs    map[int]chan T
	nextID  int
}

// NewObservable returns an empty slot.
func NewObservable[T any]() *Observable[T] {
	return &Observable[T]{subs: make(map[int]chan T)}
}

// Get returns the current value and whether one was ever published.
func (o *Observable[T]) Get() (T, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value, o.set
}

// Version increments on every Set.
func (o *Observable[T]) Version() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.version
}

// Set publishes v.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = v
	o.set = true
	o.version++
	for _, ch := range o.subs {
		offerLatest(ch, v)
	}
}

// Subscribe returns a channel receiving published values, starting with the
// current one if set, and a cancel func that closes the channel.
func (o *Observable[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan T, 1)
	id := o.nextID
	o.nextID++
	o.subs[id] = ch
	if o.set {
		ch <- o.value
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			close(ch)
		})
	}
}

// offerLatest replaces any undelivered value with v. Callers hold the lock
// that serializes senders on ch.
func offerLatest[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
