package storage

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/config"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
)

func newTestStorage(t *testing.T) (*Storage, *post.Queue) {
	dir := t.TempDir()
	queue := post.NewQueue()
	s, err := NewStorage(func() (storagecommon.WorldStorage, error) {
		return OpenBackend(&config.StorageConfig{Type: "filesystem", Directory: dir})
	}, queue)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Shutdown)
	return s, queue
}

// tickUntil ticks queue until done returns true
func tickUntil(t *testing.T, queue *post.Queue, done func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout")
		}
		queue.Tick()
		time.Sleep(time.Millisecond)
	}
}

func TestOpenBackendUnknown(t *testing.T) {
	_, err := OpenBackend(&config.StorageConfig{Type: "sqlite"})
	assert.T(t, err != nil)
}

func TestStorageChunks(t *testing.T) {
	s, queue := newTestStorage(t)

	k1, k2 := common.MakeChunkKey(0, 0), common.MakeChunkKey(3, -4)
	chunk := world.NewChunk(k1)
	chunk.SetTile(1, 2, world.Tile{Block: 7, Height: 3})

	saved := false
	s.SaveChunks([]*world.Chunk{chunk}, func() { saved = true })
	tickUntil(t, queue, func() bool { return saved })

	var found []*world.Chunk
	var missing []common.ChunkKey
	loaded := false
	s.LoadChunks([]common.ChunkKey{k1, k2}, func(f []*world.Chunk, m []common.ChunkKey, err error) {
		assert.Equal(t, nil, err)
		found, missing, loaded = f, m, true
	})
	tickUntil(t, queue, func() bool { return loaded })

	assert.Equal(t, 1, len(found))
	assert.Equal(t, world.Tile{Block: 7, Height: 3}, found[0].TileAt(1, 2))
	assert.Equal(t, []common.ChunkKey{k2}, missing)
}

func TestChunkProvider(t *testing.T) {
	s, queue := newTestStorage(t)
	cp := NewChunkProvider(s)

	var loadedKeys, unavailable []common.ChunkKey
	cp.Loaded.Subscribe(func(ev loader.ChunkEvent) { loadedKeys = append(loadedKeys, ev.Keys()...) })
	cp.Unavailable.Subscribe(func(ev loader.KeysEvent) { unavailable = append(unavailable, ev.Keys...) })

	k1, k2 := common.MakeChunkKey(1, 1), common.MakeChunkKey(2, 2)
	cp.SaveChunks([]*world.Chunk{world.NewChunk(k1)})
	cp.LoadChunks([]common.ChunkKey{k1, k2})
	tickUntil(t, queue, func() bool { return len(loadedKeys)+len(unavailable) == 2 })
	assert.Equal(t, []common.ChunkKey{k1}, loadedKeys)
	assert.Equal(t, []common.ChunkKey{k2}, unavailable)

	// nothing fires after dispose
	cp.Dispose()
	cp.LoadChunks([]common.ChunkKey{k1})
	done := false
	s.LoadChunks([]common.ChunkKey{k1}, func([]*world.Chunk, []common.ChunkKey, error) { done = true })
	tickUntil(t, queue, func() bool { return done })
	assert.Equal(t, 1, len(loadedKeys))
}

func TestEntityProvider(t *testing.T) {
	s, queue := newTestStorage(t)
	ep := NewEntityProvider(s)

	var loaded []loader.EntityEvent
	var unavailable []common.ChunkKey
	ep.Loaded.Subscribe(func(ev loader.EntityEvent) { loaded = append(loaded, ev) })
	ep.Unavailable.Subscribe(func(ev loader.AreasEvent) { unavailable = append(unavailable, ev.Areas...) })

	area, empty := common.MakeChunkKey(5, 5), common.MakeChunkKey(6, 6)
	npc := world.NewEntity(42)
	npc.SetPosition(world.Vector3{X: 80, Y: 1, Z: 81})
	npc.Set(world.PROP_NAME, world.StringValue("npc"))
	ep.SaveEntities(area, []*world.Entity{npc})

	ep.LoadEntitiesIn([]common.ChunkKey{area, empty})
	tickUntil(t, queue, func() bool { return len(loaded)+len(unavailable) == 2 })

	assert.Equal(t, 1, len(loaded))
	assert.Equal(t, area, loaded[0].Area)
	assert.Equal(t, 1, len(loaded[0].Entities))
	e := loaded[0].Entities[0]
	assert.Equal(t, common.EntityID(42), e.ID)
	assert.Equal(t, npc.Properties(), e.Properties())
	assert.Equal(t, []common.ChunkKey{empty}, unavailable)
}

// flakyStorage fails the first reads before passing them on
type flakyStorage struct {
	storagecommon.WorldStorage
	failReads int32
}

func (fs *flakyStorage) fail() bool {
	return atomic.AddInt32(&fs.failReads, -1) >= 0
}

func (fs *flakyStorage) ReadChunk(key common.ChunkKey) (*world.Chunk, error) {
	if fs.fail() {
		return nil, errors.New("read chunk failed")
	}
	return fs.WorldStorage.ReadChunk(key)
}

func (fs *flakyStorage) ReadEntities(area common.ChunkKey) ([]world.EntityRecord, bool, error) {
	if fs.fail() {
		return nil, false, errors.New("read entities failed")
	}
	return fs.WorldStorage.ReadEntities(area)
}

func newFlakyStorage(t *testing.T) (*Storage, *post.Queue, *flakyStorage) {
	backend, err := OpenBackend(&config.StorageConfig{Type: "filesystem", Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	fs := &flakyStorage{WorldStorage: backend}
	queue := post.NewQueue()
	s, err := NewStorage(func() (storagecommon.WorldStorage, error) { return fs, nil }, queue)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Shutdown)
	return s, queue, fs
}

func TestProvidersRetryFailedReads(t *testing.T) {
	defer func(d time.Duration) { retryLoadInterval = d }(retryLoadInterval)
	retryLoadInterval = 10 * time.Millisecond

	s, queue, fs := newFlakyStorage(t)
	key := common.MakeChunkKey(9, 9)
	npc := world.NewEntity(7)
	npc.Set(world.PROP_NAME, world.StringValue("npc"))
	saved := 0
	s.SaveChunks([]*world.Chunk{world.NewChunk(key)}, func() { saved++ })
	s.SaveEntities(key, []world.EntityRecord{npc.Record()}, func() { saved++ })
	tickUntil(t, queue, func() bool { return saved == 2 })

	atomic.StoreInt32(&fs.failReads, 2)

	cp := NewChunkProvider(s)
	var chunks []common.ChunkKey
	chunksUnavailable := 0
	cp.Loaded.Subscribe(func(ev loader.ChunkEvent) { chunks = append(chunks, ev.Keys()...) })
	cp.Unavailable.Subscribe(func(loader.KeysEvent) { chunksUnavailable++ })
	cp.LoadChunks([]common.ChunkKey{key})
	tickUntil(t, queue, func() bool { return len(chunks) == 1 })
	assert.Equal(t, []common.ChunkKey{key}, chunks)
	assert.Equal(t, 0, chunksUnavailable)

	atomic.StoreInt32(&fs.failReads, 2)
	ep := NewEntityProvider(s)
	var loaded []loader.EntityEvent
	entitiesUnavailable := 0
	ep.Loaded.Subscribe(func(ev loader.EntityEvent) { loaded = append(loaded, ev) })
	ep.Unavailable.Subscribe(func(loader.AreasEvent) { entitiesUnavailable++ })
	ep.LoadEntities(key)
	tickUntil(t, queue, func() bool { return len(loaded) == 1 })
	assert.Equal(t, 1, len(loaded[0].Entities))
	assert.Equal(t, npc.ID, loaded[0].Entities[0].ID)
	assert.Equal(t, 0, entitiesUnavailable)
}

func TestStorageSync(t *testing.T) {
	s, queue := newTestStorage(t)
	var order []string
	area := common.MakeChunkKey(0, 0)
	s.SaveEntities(area, nil, func() { order = append(order, "save") })
	s.Sync(func() { order = append(order, "sync") })
	tickUntil(t, queue, func() bool { return len(order) == 2 })
	assert.Equal(t, []string{"save", "sync"}, order)
}
