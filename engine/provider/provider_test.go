package provider

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/world"
)

type fakeChunkLoader struct {
	loader.ChunkEvents
	name     string
	requests [][]common.ChunkKey
	disposed int
}

func (fl *fakeChunkLoader) LoadChunks(keys []common.ChunkKey) {
	fl.requests = append(fl.requests, keys)
}

func (fl *fakeChunkLoader) Dispose() {
	fl.disposed++
}

func (fl *fakeChunkLoader) requested(k common.ChunkKey) bool {
	for _, req := range fl.requests {
		for _, rk := range req {
			if rk == k {
				return true
			}
		}
	}
	return false
}

func (fl *fakeChunkLoader) unavailable(keys ...common.ChunkKey) {
	fl.Unavailable.Fire(loader.KeysEvent{Keys: keys})
}

func (fl *fakeChunkLoader) loaded(keys ...common.ChunkKey) {
	chunks := make([]*world.Chunk, len(keys))
	for i, k := range keys {
		chunks[i] = world.NewChunk(k)
	}
	fl.Loaded.Fire(loader.ChunkEvent{Chunks: chunks})
}

// autoUnavailable answers every request with unavailable, synchronously
type autoUnavailable struct {
	fakeChunkLoader
}

func (al *autoUnavailable) LoadChunks(keys []common.ChunkKey) {
	al.fakeChunkLoader.LoadChunks(keys)
	al.unavailable(keys...)
}

func newABC() (*fakeChunkLoader, *fakeChunkLoader, *fakeChunkLoader, *ChunkChain) {
	a, b, c := &fakeChunkLoader{name: "A"}, &fakeChunkLoader{name: "B"}, &fakeChunkLoader{name: "C"}
	return a, b, c, NewChunkChain(a, b, c)
}

func TestTracker(t *testing.T) {
	tr := NewTracker[int](2)
	assert.Equal(t, KeyState{State: Unrequested}, tr.State(1))

	tr.Request([]int{1, 2, 3})
	assert.Equal(t, KeyState{Pending, 0}, tr.State(1))
	assert.Equal(t, "PendingAt(0)", tr.State(1).String())

	retry, next, exhausted := tr.Reject(0, []int{1, 2, 9})
	assert.Equal(t, []int{1, 2}, retry)
	assert.Equal(t, 1, next)
	assert.Equal(t, 0, len(exhausted))

	// stale report from provider 0 for a key already at provider 1
	retry, _, exhausted = tr.Reject(0, []int{1})
	assert.Equal(t, 0, len(retry)+len(exhausted))
	assert.Equal(t, KeyState{Pending, 1}, tr.State(1))

	assert.Equal(t, []int{2}, tr.Resolve([]int{2, 9}))
	_, _, exhausted = tr.Reject(1, []int{1, 2})
	assert.Equal(t, []int{1}, exhausted)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, KeyState{Pending, 0}, tr.State(3))
}

func TestChainFallsThroughToExhaustion(t *testing.T) {
	a, b, c, chain := newABC()
	k := common.MakeChunkKey(1, 2)
	var unavailable []common.ChunkKey
	chain.Unavailable.Subscribe(func(ev loader.KeysEvent) { unavailable = append(unavailable, ev.Keys...) })

	chain.LoadChunks([]common.ChunkKey{k})
	assert.T(t, a.requested(k))
	assert.T(t, !b.requested(k))
	assert.Equal(t, KeyState{Pending, 0}, chain.State(k))

	a.unavailable(k)
	assert.T(t, b.requested(k))
	assert.T(t, !c.requested(k))
	assert.Equal(t, 0, len(unavailable))

	b.unavailable(k)
	assert.T(t, c.requested(k))
	assert.Equal(t, 0, len(unavailable))

	c.unavailable(k)
	assert.Equal(t, []common.ChunkKey{k}, unavailable)
	assert.Equal(t, 0, chain.Pending())
}

func TestChainStopsWhenLoaded(t *testing.T) {
	a, b, c, chain := newABC()
	k := common.MakeChunkKey(1, 2)
	var loaded []loader.ChunkEvent
	chain.Loaded.Subscribe(func(ev loader.ChunkEvent) { loaded = append(loaded, ev) })
	chain.Unavailable.Subscribe(func(loader.KeysEvent) { t.Errorf("should not be unavailable") })

	chain.LoadChunks([]common.ChunkKey{k})
	a.unavailable(k)
	b.loaded(k)

	assert.Equal(t, 1, len(loaded))
	assert.Equal(t, []common.ChunkKey{k}, loaded[0].Keys())
	assert.Equal(t, KeyState{State: Unrequested}, chain.State(k))

	// a late unavailable for the resolved key is not misattributed
	b.unavailable(k)
	assert.T(t, !c.requested(k))
}

func TestChainGroupsRetries(t *testing.T) {
	a, b, _, chain := newABC()
	k1, k2, k3 := common.MakeChunkKey(0, 0), common.MakeChunkKey(0, 1), common.MakeChunkKey(0, 2)

	var generated []loader.ChunkEvent
	chain.Generated.Subscribe(func(ev loader.ChunkEvent) { generated = append(generated, ev) })

	chain.LoadChunks([]common.ChunkKey{k1, k2, k3})
	assert.Equal(t, 1, len(a.requests))

	a.loaded(k2)
	a.unavailable(k1, k3)
	assert.Equal(t, [][]common.ChunkKey{{k1, k3}}, b.requests)

	b.Generated.Fire(loader.ChunkEvent{Chunks: []*world.Chunk{world.NewChunk(k1), world.NewChunk(k3)}})
	assert.Equal(t, 1, len(generated))
	assert.Equal(t, 0, chain.Pending())

	chain.LoadChunks(nil)
	assert.Equal(t, 1, len(a.requests))
}

func TestChainSynchronousProviders(t *testing.T) {
	a, b := &autoUnavailable{}, &autoUnavailable{}
	chain := NewChunkChain(a, b)
	var unavailable []common.ChunkKey
	chain.Unavailable.Subscribe(func(ev loader.KeysEvent) { unavailable = append(unavailable, ev.Keys...) })

	k := common.MakeChunkKey(5, 5)
	chain.LoadChunks([]common.ChunkKey{k})
	assert.Equal(t, 1, len(b.requests))
	assert.Equal(t, []common.ChunkKey{k}, unavailable)
}

func TestChainDispose(t *testing.T) {
	a, b, c, chain := newABC()
	chain.Dispose()
	for _, fl := range []*fakeChunkLoader{a, b, c} {
		assert.Equal(t, 1, fl.disposed)
		assert.Equal(t, 0, fl.Loaded.Len())
		assert.Equal(t, 0, fl.Unavailable.Len())
	}
}

type fakeEntityLoader struct {
	loader.EntityEvents
	areas    []common.ChunkKey
	disposed bool
}

func (fl *fakeEntityLoader) LoadEntities(area common.ChunkKey) {
	fl.areas = append(fl.areas, area)
}

func (fl *fakeEntityLoader) LoadEntitiesIn(areas []common.ChunkKey) {
	loader.LoadEach(fl, areas)
}

func (fl *fakeEntityLoader) Dispose() {
	fl.disposed = true
}

func TestEntityChain(t *testing.T) {
	a, b := &fakeEntityLoader{}, &fakeEntityLoader{}
	chain := NewEntityChain(a, b)
	area := common.MakeChunkKey(3, 3)

	var loaded, updated []loader.EntityEvent
	chain.Loaded.Subscribe(func(ev loader.EntityEvent) { loaded = append(loaded, ev) })
	chain.Updated.Subscribe(func(ev loader.EntityEvent) { updated = append(updated, ev) })

	chain.LoadEntities(area)
	a.Unavailable.Fire(loader.AreasEvent{Areas: []common.ChunkKey{area}})
	assert.Equal(t, []common.ChunkKey{area}, b.areas)

	b.Loaded.Fire(loader.EntityEvent{Area: area, Entities: []*world.Entity{world.NewEntity(1)}})
	a.Updated.Fire(loader.EntityEvent{Area: area})
	assert.Equal(t, 1, len(loaded))
	assert.Equal(t, 1, len(updated))
	assert.Equal(t, 0, chain.Pending())

	chain.Dispose()
	assert.T(t, a.disposed && b.disposed)
}

type fakeTriggerLoader struct {
	loader.TriggerEvents
	areas [][]common.ChunkKey
}

func (fl *fakeTriggerLoader) LoadTriggers(areas []common.ChunkKey) {
	fl.areas = append(fl.areas, areas)
}

func (fl *fakeTriggerLoader) Dispose() {}

func TestTriggerChain(t *testing.T) {
	a, b := &fakeTriggerLoader{}, &fakeTriggerLoader{}
	chain := NewTriggerChain(a, b)
	area := common.MakeChunkKey(0, 0)
	var unavailable []common.ChunkKey
	chain.Unavailable.Subscribe(func(ev loader.AreasEvent) { unavailable = append(unavailable, ev.Areas...) })

	chain.LoadTriggers([]common.ChunkKey{area})
	a.Unavailable.Fire(loader.AreasEvent{Areas: []common.ChunkKey{area}})
	b.Unavailable.Fire(loader.AreasEvent{Areas: []common.ChunkKey{area}})
	assert.Equal(t, 1, len(b.areas))
	assert.Equal(t, []common.ChunkKey{area}, unavailable)
}

type recordingSaver struct {
	chunks   int
	entities int
}

func (rs *recordingSaver) SaveChunks(chunks []*world.Chunk) { rs.chunks += len(chunks) }
func (rs *recordingSaver) SaveEntities(area common.ChunkKey, entities []*world.Entity) {
	rs.entities += len(entities)
}

func TestSimpleWrapper(t *testing.T) {
	w := NewSimpleWrapper()
	a, b := &fakeChunkLoader{}, &fakeChunkLoader{}
	w.AddChunkProvider(a)
	w.AddChunkProvider(b)
	s1, s2 := &recordingSaver{}, &recordingSaver{}
	w.AddChunkSaver(s1)
	w.AddChunkSaver(s2)
	w.AddEntitySaver(s1)

	k := common.MakeChunkKey(1, 1)
	w.LoadChunks([]common.ChunkKey{k})
	assert.T(t, a.requested(k))
	assert.T(t, !b.requested(k))

	loaded := 0
	w.Chunks.Loaded.Subscribe(func(loader.ChunkEvent) { loaded++ })
	a.loaded(k)
	b.loaded(k)
	assert.Equal(t, 2, loaded)

	w.SaveChunks([]*world.Chunk{world.NewChunk(k)})
	assert.Equal(t, 1, s1.chunks)
	assert.Equal(t, 1, s2.chunks)
	w.SaveEntities(k, []*world.Entity{world.NewEntity(1), world.NewEntity(2)})
	assert.Equal(t, 2, s1.entities)
	assert.Equal(t, 0, s2.entities)

	w.Dispose()
	assert.Equal(t, 1, a.disposed)
	assert.Equal(t, 1, b.disposed)
	a.loaded(k)
	assert.Equal(t, 2, loaded)
}

func TestBroadcastWrapper(t *testing.T) {
	w := NewBroadcastWrapper()
	a, b := &fakeChunkLoader{}, &fakeChunkLoader{}
	w.AddChunkProvider(a)
	w.AddChunkProvider(b)
	e1, e2 := &fakeEntityLoader{}, &fakeEntityLoader{}
	w.AddEntityProvider(e1)
	w.AddEntityProvider(e2)
	t1 := &fakeTriggerLoader{}
	w.AddTriggerProvider(t1)

	k := common.MakeChunkKey(2, 2)
	w.LoadChunks([]common.ChunkKey{k})
	w.LoadEntities(k)
	w.LoadTriggers([]common.ChunkKey{k})
	assert.T(t, a.requested(k) && b.requested(k))
	assert.Equal(t, []common.ChunkKey{k}, e1.areas)
	assert.Equal(t, []common.ChunkKey{k}, e2.areas)
	assert.Equal(t, 1, len(t1.areas))

	deleted := 0
	w.Entities.Deleted.Subscribe(func(loader.EntityIDsEvent) { deleted++ })
	e2.Deleted.Fire(loader.EntityIDsEvent{IDs: []common.EntityID{1}})
	assert.Equal(t, 1, deleted)

	unavailable := 0
	w.Triggers.Unavailable.Subscribe(func(loader.AreasEvent) { unavailable++ })
	t1.Unavailable.Fire(loader.AreasEvent{})
	assert.Equal(t, 1, unavailable)
}
