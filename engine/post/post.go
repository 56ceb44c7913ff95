package post

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/gwutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

// Queue holds callbacks posted from any goroutine until the owner goroutine ticks it
type Queue struct {
	lock      sync.Mutex
	callbacks []PostCallback
}

// NewQueue creates an empty Queue
func NewQueue() *Queue {
	return &Queue{}
}

// Post a callback which will be executed at the next Tick
//
// Post might be called from other goroutine, so we use a lock to protect the data
func (q *Queue) Post(f PostCallback) {
	q.lock.Lock()
	q.callbacks = append(q.callbacks, f)
	q.lock.Unlock()
}

// Len returns the number of callbacks waiting
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.callbacks)
}

// Tick runs all posted callbacks, including ones posted by the callbacks themselves
func (q *Queue) Tick() {
	for { // loop until there is no callbacks posted anymore
		q.lock.Lock()
		if len(q.callbacks) == 0 {
			q.lock.Unlock()
			break
		}
		// switch callbacks in locked section
		callbacksCopy := q.callbacks
		q.callbacks = make([]PostCallback, 0, len(callbacksCopy))
		q.lock.Unlock()

		for _, f := range callbacksCopy {
			gwutils.RunPanicless(f)
		}
	}
}

var defaultQueue = NewQueue()

// Post a callback to the engine thread queue
func Post(f PostCallback) {
	defaultQueue.Post(f)
}

// Tick is called by the engine thread to run all posted functions
func Tick() {
	defaultQueue.Tick()
}
