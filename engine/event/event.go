// Package event implements typed multicast events with explicit subscriptions
package event

import (
	"sync"
	"sync/atomic"
)

// Handle identifies one subscription of an Event
type Handle uint64

var nextHandle uint64

// Event is a multicast event carrying payloads of type T
//
// The zero value is ready to use. Handlers run on the goroutine calling Fire.
type Event[T any] struct {
	lock     sync.RWMutex
	handlers []subscription[T]
}

type subscription[T any] struct {
	handle Handle
	fn     func(T)
}

// Subscribe adds the handler and returns its handle
func (e *Event[T]) Subscribe(fn func(T)) Handle {
	h := Handle(atomic.AddUint64(&nextHandle, 1))
	e.lock.Lock()
	e.handlers = append(e.handlers, subscription[T]{h, fn})
	e.lock.Unlock()
	return h
}

// Unsubscribe removes the handler of the handle, returns false if it is not subscribed
func (e *Event[T]) Unsubscribe(h Handle) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	for i, sub := range e.handlers {
		if sub.handle == h {
			handlers := make([]subscription[T], 0, len(e.handlers)-1)
			handlers = append(handlers, e.handlers[:i]...)
			e.handlers = append(handlers, e.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Fire calls every handler subscribed at the time of the call
func (e *Event[T]) Fire(v T) {
	e.lock.RLock()
	handlers := e.handlers
	e.lock.RUnlock()

	for _, sub := range handlers {
		sub.fn(v)
	}
}

// Len returns the number of subscriptions
func (e *Event[T]) Len() int {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return len(e.handlers)
}

// Subscriptions records handles of many events so they can be dropped together
type Subscriptions struct {
	lock    sync.Mutex
	cancels []func()
}

// Add subscribes fn to ev and records the subscription
func Add[T any](subs *Subscriptions, ev *Event[T], fn func(T)) {
	h := ev.Subscribe(fn)
	subs.lock.Lock()
	subs.cancels = append(subs.cancels, func() { ev.Unsubscribe(h) })
	subs.lock.Unlock()
}

// Forward re-fires every payload of from on to
func Forward[T any](subs *Subscriptions, from *Event[T], to *Event[T]) {
	Add(subs, from, to.Fire)
}

// Clear unsubscribes everything recorded
func (subs *Subscriptions) Clear() {
	subs.lock.Lock()
	cancels := subs.cancels
	subs.cancels = nil
	subs.lock.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Len returns the number of recorded subscriptions
func (subs *Subscriptions) Len() int {
	subs.lock.Lock()
	defer subs.lock.Unlock()
	return len(subs.cancels)
}
