package generator

import (
	"reflect"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/provider"
	"github.com/xiaonanln/worldsync/engine/world"
)

var testBlocks = []common.BlockTypeID{1, 2, 5}

func TestChunkGeneratorDeterministic(t *testing.T) {
	g1 := NewChunkGenerator(7, testBlocks)
	g2 := NewChunkGenerator(7, testBlocks)
	key := common.MakeChunkKey(-3, 12)
	c1, c2 := g1.Generate(key), g2.Generate(key)
	assert.Equal(t, key, c1.Key)
	assert.Equal(t, c1.Tiles, c2.Tiles)
	assert.Equal(t, c1.Lights, c2.Lights)

	other := NewChunkGenerator(8, testBlocks).Generate(key)
	assert.T(t, !reflect.DeepEqual(c1.Tiles, other.Tiles))

	for y := 0; y < consts.CHUNK_SIZE; y++ {
		for x := 0; x < consts.CHUNK_SIZE; x++ {
			tile := c1.TileAt(x, y)
			assert.T(t, tile.Block == 1 || tile.Block == 2 || tile.Block == 5)
			assert.T(t, tile.Height <= _MAX_TILE_HEIGHT)
		}
	}
}

func TestChunkGeneratorLights(t *testing.T) {
	g := NewChunkGenerator(1, testBlocks)
	lit := 0
	for x := int32(0); x < 64; x++ {
		key := common.MakeChunkKey(x, 0)
		c := g.Generate(key)
		for _, l := range c.Lights {
			lit++
			assert.Equal(t, key, l.Position.ChunkKey())
		}
	}
	assert.T(t, lit > 0)
	assert.T(t, lit < 64)
}

func TestChunkGeneratorNeedsBlocks(t *testing.T) {
	defer func() {
		assert.T(t, recover() != nil)
	}()
	NewChunkGenerator(1, nil)
}

func TestChunkGeneratorFallback(t *testing.T) {
	empty := &emptyChunkLoader{}
	gen := NewChunkGenerator(3, testBlocks)
	chain := provider.NewChunkChain(empty, gen)

	var generated []common.ChunkKey
	chain.Generated.Subscribe(func(ev loader.ChunkEvent) { generated = append(generated, ev.Keys()...) })
	chain.Unavailable.Subscribe(func(loader.KeysEvent) { t.Errorf("generator should never be unavailable") })

	keys := []common.ChunkKey{common.MakeChunkKey(0, 0), common.MakeChunkKey(0, 1)}
	chain.LoadChunks(keys)
	assert.Equal(t, keys, generated)
	assert.Equal(t, 0, chain.Pending())
}

func TestAsyncChunkGenerator(t *testing.T) {
	queue := post.NewQueue()
	gen := NewAsyncChunkGenerator(5, testBlocks, queue)
	var generated []*world.Chunk
	gen.Generated.Subscribe(func(ev loader.ChunkEvent) { generated = append(generated, ev.Chunks...) })

	key := common.MakeChunkKey(-1, 7)
	gen.LoadChunks([]common.ChunkKey{key})
	assert.Equal(t, 0, len(generated))

	deadline := time.Now().Add(5 * time.Second)
	for len(generated) == 0 && time.Now().Before(deadline) {
		queue.Tick()
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 1, len(generated))
	assert.Equal(t, gen.Generate(key), generated[0])

	gen.Dispose()
	gen.LoadChunks([]common.ChunkKey{key})
	time.Sleep(20 * time.Millisecond)
	queue.Tick()
	assert.Equal(t, 1, len(generated))
}

// emptyChunkLoader reports every key unavailable
type emptyChunkLoader struct {
	loader.ChunkEvents
}

func (l *emptyChunkLoader) LoadChunks(keys []common.ChunkKey) {
	l.Unavailable.Fire(loader.KeysEvent{Keys: keys})
}

func (l *emptyChunkLoader) Dispose() {}

func TestTriggerGenerator(t *testing.T) {
	g := NewTriggerGenerator(11)
	area := common.MakeChunkKey(4, -2)
	t1, t2 := g.Generate(area), NewTriggerGenerator(11).Generate(area)
	assert.Equal(t, t1, t2)
	assert.T(t, len(t1) <= _MAX_TRIGGERS_PER_CHUNK)
	for i, tr := range t1 {
		assert.Equal(t, common.TriggerKey{Chunk: area, ID: uint16(i + 1)}, tr.Key)
		assert.Equal(t, area, tr.Position.ChunkKey())
	}

	var events []loader.TriggerEvent
	g.Loaded.Subscribe(func(ev loader.TriggerEvent) { events = append(events, ev) })
	areas := []common.ChunkKey{area, area.Add(1, 0)}
	g.LoadTriggers(areas)
	assert.Equal(t, 2, len(events))
	assert.Equal(t, area, events[0].Area)
	assert.Equal(t, len(t1), len(events[0].Triggers))
	assert.Equal(t, areas[1], events[1].Area)
}
