// Package provider composes loaders: chains try providers in order per key, wrappers fan out to all providers
package provider

import "fmt"

// State is the state of one key in a provider chain
type State int

const (
	// Unrequested keys are not tracked
	Unrequested State = iota
	// Pending keys wait for the provider at Index
	Pending
	// Resolved keys were loaded by some provider
	Resolved
	// Exhausted keys were reported unavailable by every provider
	Exhausted
)

func (s State) String() string {
	switch s {
	case Unrequested:
		return "Unrequested"
	case Pending:
		return "Pending"
	case Resolved:
		return "Resolved"
	case Exhausted:
		return "Exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// KeyState is the state of a key with the provider index it is pending at
type KeyState struct {
	State State
	Index int
}

func (ks KeyState) String() string {
	if ks.State == Pending {
		return fmt.Sprintf("PendingAt(%d)", ks.Index)
	}
	return ks.State.String()
}

// Tracker is the per-key state machine of a chain of n providers
//
// Keys only move forward: Unrequested -> PendingAt(0) -> ... -> PendingAt(n-1) -> Exhausted,
// or to Resolved from any PendingAt. Resolved and exhausted keys are dropped from tracking.
// Tracker is not safe for concurrent use.
type Tracker[K comparable] struct {
	providers int
	pending   map[K]int
}

// NewTracker creates a Tracker for a chain of n providers
func NewTracker[K comparable](n int) *Tracker[K] {
	if n <= 0 {
		panic(fmt.Errorf("provider chain needs at least one provider, got %d", n))
	}
	return &Tracker[K]{
		providers: n,
		pending:   map[K]int{},
	}
}

// Request moves keys to PendingAt(0), including keys already pending
func (t *Tracker[K]) Request(keys []K) {
	for _, k := range keys {
		t.pending[k] = 0
	}
}

// Resolve moves pending keys to Resolved and drops them, returning the keys which were pending
func (t *Tracker[K]) Resolve(keys []K) []K {
	var resolved []K
	for _, k := range keys {
		if _, ok := t.pending[k]; ok {
			delete(t.pending, k)
			resolved = append(resolved, k)
		}
	}
	return resolved
}

// Reject handles keys reported unavailable by provider from
//
// Keys pending at from advance to PendingAt(from+1) and are returned in retry, unless from is the
// last provider, in which case they are Exhausted and returned in exhausted. Keys not pending at
// from are stale reports and ignored.
func (t *Tracker[K]) Reject(from int, keys []K) (retry []K, next int, exhausted []K) {
	next = from + 1
	for _, k := range keys {
		idx, ok := t.pending[k]
		if !ok || idx != from {
			continue
		}
		if idx+1 == t.providers {
			delete(t.pending, k)
			exhausted = append(exhausted, k)
		} else {
			t.pending[k] = next
			retry = append(retry, k)
		}
	}
	return
}

// State returns the state of the key, Unrequested if it is not tracked
func (t *Tracker[K]) State(k K) KeyState {
	if idx, ok := t.pending[k]; ok {
		return KeyState{Pending, idx}
	}
	return KeyState{State: Unrequested}
}

// Len returns the number of pending keys
func (t *Tracker[K]) Len() int {
	return len(t.pending)
}

// Providers returns the number of providers in the chain
func (t *Tracker[K]) Providers() int {
	return t.providers
}
