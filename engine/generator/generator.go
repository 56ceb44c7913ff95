// Package generator generates chunks and triggers procedurally
//
// Generation is a pure function of the seed and the chunk key, so every server generates the same world.
package generator

import (
	"hash/fnv"
	"math/rand"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/world"
)

// rngFor returns a random source for key and salt under seed
func rngFor(seed int64, key common.ChunkKey, salt uint32) *rand.Rand {
	h := fnv.New64a()
	var b [20]byte
	putUint64(b[0:], uint64(seed))
	putUint32(b[8:], uint32(key.X))
	putUint32(b[12:], uint32(key.Y))
	putUint32(b[16:], salt)
	h.Write(b[:])
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func putUint32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func putUint64(b []byte, v uint64) {
	putUint32(b, uint32(v))
	putUint32(b[4:], uint32(v>>32))
}

// chunkOrigin returns the world position of tile (0, 0) of the chunk
func chunkOrigin(key common.ChunkKey) world.Vector3 {
	return world.Vector3{
		X: world.Coord(key.X) * consts.CHUNK_SIZE,
		Z: world.Coord(key.Y) * consts.CHUNK_SIZE,
	}
}
