package provider

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/event"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/loader"
)

// chain drives a Tracker from the events of its providers
//
// Provider calls and upward events happen outside the lock, since providers may answer synchronously.
type chain[K comparable] struct {
	name        string
	lock        sync.Mutex
	tracker     *Tracker[K]
	load        func(i int, keys []K)
	unavailable func(keys []K)
	subs        event.Subscriptions
}

func (c *chain[K]) request(keys []K) {
	if len(keys) == 0 {
		return
	}
	c.lock.Lock()
	c.tracker.Request(keys)
	c.lock.Unlock()
	c.load(0, keys)
}

func (c *chain[K]) resolve(keys []K) {
	c.lock.Lock()
	c.tracker.Resolve(keys)
	c.lock.Unlock()
}

func (c *chain[K]) reject(from int, keys []K) {
	c.lock.Lock()
	retry, next, exhausted := c.tracker.Reject(from, keys)
	c.lock.Unlock()

	if consts.DEBUG_LOADERS {
		gwlog.Debugf("%s: provider %d rejected %v, retry %v at %d, exhausted %v", c.name, from, keys, retry, next, exhausted)
	}
	if len(retry) > 0 {
		c.load(next, retry)
	}
	if len(exhausted) > 0 {
		c.unavailable(exhausted)
	}
}

// State returns the state of the key in the chain
func (c *chain[K]) State(k K) KeyState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.tracker.State(k)
}

// Pending returns the number of keys waiting for a provider
func (c *chain[K]) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.tracker.Len()
}

// ChunkChain loads chunks from the first provider that has them
type ChunkChain struct {
	loader.ChunkEvents
	chain[common.ChunkKey]
	providers []loader.ChunkLoader
}

// NewChunkChain creates a chain trying providers in order
func NewChunkChain(providers ...loader.ChunkLoader) *ChunkChain {
	cc := &ChunkChain{providers: providers}
	cc.name = "ChunkChain"
	cc.tracker = NewTracker[common.ChunkKey](len(providers))
	cc.load = func(i int, keys []common.ChunkKey) {
		cc.providers[i].LoadChunks(keys)
	}
	cc.unavailable = func(keys []common.ChunkKey) {
		cc.Unavailable.Fire(loader.KeysEvent{Keys: keys})
	}

	for i, p := range providers {
		i := i
		evs := p.Events()
		event.Add(&cc.subs, &evs.Loaded, func(ev loader.ChunkEvent) {
			cc.resolve(ev.Keys())
			cc.Loaded.Fire(ev)
		})
		event.Add(&cc.subs, &evs.Generated, func(ev loader.ChunkEvent) {
			cc.resolve(ev.Keys())
			cc.Generated.Fire(ev)
		})
		event.Add(&cc.subs, &evs.Unavailable, func(ev loader.KeysEvent) {
			cc.reject(i, ev.Keys)
		})
	}
	return cc
}

// LoadChunks requests keys from the first provider
func (cc *ChunkChain) LoadChunks(keys []common.ChunkKey) {
	cc.request(keys)
}

// Dispose unsubscribes from and disposes every provider
func (cc *ChunkChain) Dispose() {
	cc.subs.Clear()
	for _, p := range cc.providers {
		p.Dispose()
	}
}

// EntityChain loads the entities of areas from the first provider that has them
type EntityChain struct {
	loader.EntityEvents
	chain[common.ChunkKey]
	providers []loader.EntityLoader
}

// NewEntityChain creates a chain trying providers in order
func NewEntityChain(providers ...loader.EntityLoader) *EntityChain {
	ec := &EntityChain{providers: providers}
	ec.name = "EntityChain"
	ec.tracker = NewTracker[common.ChunkKey](len(providers))
	ec.load = func(i int, areas []common.ChunkKey) {
		ec.providers[i].LoadEntitiesIn(areas)
	}
	ec.unavailable = func(areas []common.ChunkKey) {
		ec.Unavailable.Fire(loader.AreasEvent{Areas: areas})
	}

	for i, p := range providers {
		i := i
		evs := p.Events()
		event.Add(&ec.subs, &evs.Loaded, func(ev loader.EntityEvent) {
			ec.resolve(ev.Areas())
			ec.Loaded.Fire(ev)
		})
		event.Forward(&ec.subs, &evs.Updated, &ec.Updated)
		event.Forward(&ec.subs, &evs.Deleted, &ec.Deleted)
		event.Add(&ec.subs, &evs.Unavailable, func(ev loader.AreasEvent) {
			ec.reject(i, ev.Areas)
		})
	}
	return ec
}

// LoadEntities requests the area from the first provider
func (ec *EntityChain) LoadEntities(area common.ChunkKey) {
	ec.request([]common.ChunkKey{area})
}

// LoadEntitiesIn requests the areas from the first provider
func (ec *EntityChain) LoadEntitiesIn(areas []common.ChunkKey) {
	ec.request(areas)
}

// Dispose unsubscribes from and disposes every provider
func (ec *EntityChain) Dispose() {
	ec.subs.Clear()
	for _, p := range ec.providers {
		p.Dispose()
	}
}

// TriggerChain loads the triggers of areas from the first provider that has them
type TriggerChain struct {
	loader.TriggerEvents
	chain[common.ChunkKey]
	providers []loader.TriggerLoader
}

// NewTriggerChain creates a chain trying providers in order
func NewTriggerChain(providers ...loader.TriggerLoader) *TriggerChain {
	tc := &TriggerChain{providers: providers}
	tc.name = "TriggerChain"
	tc.tracker = NewTracker[common.ChunkKey](len(providers))
	tc.load = func(i int, areas []common.ChunkKey) {
		tc.providers[i].LoadTriggers(areas)
	}
	tc.unavailable = func(areas []common.ChunkKey) {
		tc.Unavailable.Fire(loader.AreasEvent{Areas: areas})
	}

	for i, p := range providers {
		i := i
		evs := p.Events()
		event.Add(&tc.subs, &evs.Loaded, func(ev loader.TriggerEvent) {
			tc.resolve([]common.ChunkKey{ev.Area})
			tc.Loaded.Fire(ev)
		})
		event.Forward(&tc.subs, &evs.Deleted, &tc.Deleted)
		event.Add(&tc.subs, &evs.Unavailable, func(ev loader.AreasEvent) {
			tc.reject(i, ev.Areas)
		})
	}
	return tc
}

// LoadTriggers requests the areas from the first provider
func (tc *TriggerChain) LoadTriggers(areas []common.ChunkKey) {
	tc.request(areas)
}

// Dispose unsubscribes from and disposes every provider
func (tc *TriggerChain) Dispose() {
	tc.subs.Clear()
	for _, p := range tc.providers {
		p.Dispose()
	}
}
