package provider

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/event"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/world"
)

// LoadPolicy selects which of n providers receive a load request
type LoadPolicy func(n int) []int

// FirstOnly sends loads to provider 0 only, leaving fallback to a chain
func FirstOnly(n int) []int {
	if n == 0 {
		return nil
	}
	return []int{0}
}

// AllProviders sends loads to every provider
func AllProviders(n int) []int {
	targets := make([]int, n)
	for i := range targets {
		targets[i] = i
	}
	return targets
}

// Wrapper aggregates chunk, entity and trigger providers behind one event surface
//
// Every provider event is re-fired unchanged: two providers reporting one key fire twice.
// Saves always go to every saver; loads go to the providers selected by the policy.
type Wrapper struct {
	Chunks   loader.ChunkEvents
	Entities loader.EntityEvents
	Triggers loader.TriggerEvents

	policy LoadPolicy
	subs   event.Subscriptions

	lock             sync.RWMutex
	chunkProviders   []loader.ChunkLoader
	entityProviders  []loader.EntityLoader
	triggerProviders []loader.TriggerLoader
	chunkSavers      []loader.ChunkSaver
	entitySavers     []loader.EntitySaver
}

// NewWrapper creates a Wrapper loading through policy
func NewWrapper(policy LoadPolicy) *Wrapper {
	return &Wrapper{policy: policy}
}

// NewSimpleWrapper creates a Wrapper which loads from the first provider of each kind
func NewSimpleWrapper() *Wrapper {
	return NewWrapper(FirstOnly)
}

// NewBroadcastWrapper creates a Wrapper which loads from every provider
func NewBroadcastWrapper() *Wrapper {
	return NewWrapper(AllProviders)
}

// AddChunkProvider adds the provider and re-fires its events
func (w *Wrapper) AddChunkProvider(p loader.ChunkLoader) {
	evs := p.Events()
	event.Forward(&w.subs, &evs.Loaded, &w.Chunks.Loaded)
	event.Forward(&w.subs, &evs.Generated, &w.Chunks.Generated)
	event.Forward(&w.subs, &evs.Unavailable, &w.Chunks.Unavailable)

	w.lock.Lock()
	w.chunkProviders = append(w.chunkProviders, p)
	w.lock.Unlock()
}

// AddEntityProvider adds the provider and re-fires its events
func (w *Wrapper) AddEntityProvider(p loader.EntityLoader) {
	evs := p.Events()
	event.Forward(&w.subs, &evs.Loaded, &w.Entities.Loaded)
	event.Forward(&w.subs, &evs.Updated, &w.Entities.Updated)
	event.Forward(&w.subs, &evs.Deleted, &w.Entities.Deleted)
	event.Forward(&w.subs, &evs.Unavailable, &w.Entities.Unavailable)

	w.lock.Lock()
	w.entityProviders = append(w.entityProviders, p)
	w.lock.Unlock()
}

// AddTriggerProvider adds the provider and re-fires its events
func (w *Wrapper) AddTriggerProvider(p loader.TriggerLoader) {
	evs := p.Events()
	event.Forward(&w.subs, &evs.Loaded, &w.Triggers.Loaded)
	event.Forward(&w.subs, &evs.Deleted, &w.Triggers.Deleted)
	event.Forward(&w.subs, &evs.Unavailable, &w.Triggers.Unavailable)

	w.lock.Lock()
	w.triggerProviders = append(w.triggerProviders, p)
	w.lock.Unlock()
}

// AddChunkSaver adds a saver receiving every SaveChunks
func (w *Wrapper) AddChunkSaver(s loader.ChunkSaver) {
	w.lock.Lock()
	w.chunkSavers = append(w.chunkSavers, s)
	w.lock.Unlock()
}

// AddEntitySaver adds a saver receiving every SaveEntities
func (w *Wrapper) AddEntitySaver(s loader.EntitySaver) {
	w.lock.Lock()
	w.entitySavers = append(w.entitySavers, s)
	w.lock.Unlock()
}

// LoadChunks requests keys from the providers selected by the policy
func (w *Wrapper) LoadChunks(keys []common.ChunkKey) {
	w.lock.RLock()
	providers := w.chunkProviders
	w.lock.RUnlock()
	for _, i := range w.policy(len(providers)) {
		providers[i].LoadChunks(keys)
	}
}

// LoadEntities requests the area from the providers selected by the policy
func (w *Wrapper) LoadEntities(area common.ChunkKey) {
	w.LoadEntitiesIn([]common.ChunkKey{area})
}

// LoadEntitiesIn requests the areas from the providers selected by the policy
func (w *Wrapper) LoadEntitiesIn(areas []common.ChunkKey) {
	w.lock.RLock()
	providers := w.entityProviders
	w.lock.RUnlock()
	for _, i := range w.policy(len(providers)) {
		providers[i].LoadEntitiesIn(areas)
	}
}

// LoadTriggers requests the areas from the providers selected by the policy
func (w *Wrapper) LoadTriggers(areas []common.ChunkKey) {
	w.lock.RLock()
	providers := w.triggerProviders
	w.lock.RUnlock()
	for _, i := range w.policy(len(providers)) {
		providers[i].LoadTriggers(areas)
	}
}

// SaveChunks saves chunks to every chunk saver
func (w *Wrapper) SaveChunks(chunks []*world.Chunk) {
	w.lock.RLock()
	savers := w.chunkSavers
	w.lock.RUnlock()
	for _, s := range savers {
		s.SaveChunks(chunks)
	}
}

// SaveEntities saves the entities of the area to every entity saver
func (w *Wrapper) SaveEntities(area common.ChunkKey, entities []*world.Entity) {
	w.lock.RLock()
	savers := w.entitySavers
	w.lock.RUnlock()
	for _, s := range savers {
		s.SaveEntities(area, entities)
	}
}

// Dispose unsubscribes from and disposes every provider
func (w *Wrapper) Dispose() {
	w.subs.Clear()

	w.lock.Lock()
	chunkProviders, entityProviders, triggerProviders := w.chunkProviders, w.entityProviders, w.triggerProviders
	w.chunkProviders, w.entityProviders, w.triggerProviders = nil, nil, nil
	w.chunkSavers, w.entitySavers = nil, nil
	w.lock.Unlock()

	for _, p := range chunkProviders {
		p.Dispose()
	}
	for _, p := range entityProviders {
		p.Dispose()
	}
	for _, p := range triggerProviders {
		p.Dispose()
	}
}
