// Package stream provides a small observable state container used to push
// record snapshots, statistics, operation state and authentication state to
// UI consumers. A Value always holds a current element; subscribers receive
// the latest element on subscribe and after every Set.
package stream

import "sync"

// Value is a concurrency-safe observable holding the most recent element of
// type T. Subscriber channels are buffered with capacity one and updated
// with latest-wins semantics: a slow subscriber never blocks a publisher and
// always observes the newest element next.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// NewValue creates a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current element.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current element and notifies all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = val
	for _, ch := range v.subs {
		send(ch, val)
	}
}

// Update applies fn to the current element under the lock and publishes the
// result.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = fn(v.cur)
	for _, ch := range v.subs {
		send(ch, v.cur)
	}
}

// Subscribe registers a new subscriber. The returned channel is primed with
// the current element. The cancel function must be called when the consumer
// is done; it closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++
	ch := make(chan T, 1)
	ch <- v.cur
	v.subs[id] = ch

	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if sub, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// send delivers val with latest-wins semantics: when the buffer is full the
// stale element is dropped in favour of the new one.
func send[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
