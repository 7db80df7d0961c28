// Package observable provides a value holder that replays its current value to
// new subscribers and pushes every update to existing ones.
package observable

import "sync"

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Value holds the latest value of T. Subscribers are called synchronously, in
// subscription order, outside the state lock; deliveries never interleave, so
// every subscriber observes updates in the order Set was called.
//
// Callbacks may read the value or unsubscribe but must not call Set or
// Subscribe on the same Value.
type Value[T any] struct {
	emitMu sync.Mutex
	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID uint64
}

// New returns a Value initialised to v.
func New[T any](v T) *Value[T] {
	return &Value[T]{value: v}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set stores v and delivers it to every subscriber.
func (o *Value[T]) Set(v T) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	o.value = v
	subs := make([]subscriber[T], len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function removes the subscription; calling it twice is a no-op.
func (o *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})
	current := o.value
	o.mu.Unlock()

	fn(current)

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}
