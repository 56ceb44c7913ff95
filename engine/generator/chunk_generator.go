package generator

import (
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xiaonanln/worldsync/engine/async"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/world"
)

const (
	_MAX_TILE_HEIGHT   = 8
	_LIGHT_PROBABILITY = 0.25
	_LIGHT_RADIUS      = 6
	_ASYNC_GROUP       = "generator"
)

// ChunkGenerator is a chunk loader generating every chunk it is asked for
//
// It never reports keys unavailable, so it is the last provider of a chunk chain.
type ChunkGenerator struct {
	loader.ChunkEvents

	seed     int64
	blocks   []common.BlockTypeID
	queue    *post.Queue
	disposed xnsyncutil.AtomicBool
}

// NewChunkGenerator creates a ChunkGenerator placing blocks of the types
func NewChunkGenerator(seed int64, blocks []common.BlockTypeID) *ChunkGenerator {
	if len(blocks) == 0 {
		gwlog.Panicf("chunk generator needs at least one block type")
	}
	return &ChunkGenerator{
		seed:   seed,
		blocks: append([]common.BlockTypeID(nil), blocks...),
	}
}

// NewAsyncChunkGenerator creates a ChunkGenerator which generates on a worker and fires Generated on queue
func NewAsyncChunkGenerator(seed int64, blocks []common.BlockTypeID, queue *post.Queue) *ChunkGenerator {
	g := NewChunkGenerator(seed, blocks)
	g.queue = queue
	return g
}

// Generate returns the chunk of key
func (g *ChunkGenerator) Generate(key common.ChunkKey) *world.Chunk {
	rng := rngFor(g.seed, key, 0)
	chunk := world.NewChunk(key)
	for y := 0; y < consts.CHUNK_SIZE; y++ {
		for x := 0; x < consts.CHUNK_SIZE; x++ {
			chunk.SetTile(x, y, world.Tile{
				Block:  g.blocks[rng.Intn(len(g.blocks))],
				Height: uint8(rng.Intn(_MAX_TILE_HEIGHT + 1)),
			})
		}
	}

	if rng.Float32() < _LIGHT_PROBABILITY {
		x, y := rng.Intn(consts.CHUNK_SIZE), rng.Intn(consts.CHUNK_SIZE)
		pos := chunkOrigin(key)
		pos.X += world.Coord(x)
		pos.Y = world.Coord(chunk.TileAt(x, y).Height) + 1
		pos.Z += world.Coord(y)
		chunk.AddLight(world.Light{
			Position: pos,
			Color:    rng.Uint32() | 0xff,
			Radius:   _LIGHT_RADIUS,
		})
	}
	return chunk
}

// LoadChunks generates the chunks and fires Generated, synchronously unless the generator is async
func (g *ChunkGenerator) LoadChunks(keys []common.ChunkKey) {
	if len(keys) == 0 {
		return
	}
	if g.queue == nil {
		g.fireGenerated(g.generateAll(keys))
		return
	}

	keys = append([]common.ChunkKey(nil), keys...)
	async.AppendAsyncJob(g.queue, _ASYNC_GROUP, func() (interface{}, error) {
		return g.generateAll(keys), nil
	}, func(res interface{}, err error) {
		if err != nil {
			gwlog.Errorf("generator: generate %d chunks failed: %v", len(keys), err)
			g.Unavailable.Fire(loader.KeysEvent{Keys: keys})
			return
		}
		g.fireGenerated(res.([]*world.Chunk))
	})
}

func (g *ChunkGenerator) generateAll(keys []common.ChunkKey) []*world.Chunk {
	chunks := make([]*world.Chunk, len(keys))
	for i, key := range keys {
		chunks[i] = g.Generate(key)
	}
	return chunks
}

func (g *ChunkGenerator) fireGenerated(chunks []*world.Chunk) {
	if g.disposed.Load() {
		return
	}
	if consts.DEBUG_LOADERS {
		gwlog.Debugf("generator: generated %d chunks", len(chunks))
	}
	g.Generated.Fire(loader.ChunkEvent{Chunks: chunks})
}

// Dispose stops firing events for chunks still being generated
func (g *ChunkGenerator) Dispose() {
	g.disposed.Store(true)
}
