package common

import (
	"fmt"
)

// EntityID type
//
// Entity IDs are assigned once by the server when the entity is created
type EntityID int32

// NilEntityID is the EntityID of no entity
const NilEntityID EntityID = 0

// IsNil returns if EntityID is nil
func (id EntityID) IsNil() bool {
	return id == NilEntityID
}

// ChunkKey identifies a fixed-size region of the world
type ChunkKey struct {
	X int32
	Y int32
}

// MakeChunkKey creates a ChunkKey
func MakeChunkKey(x, y int32) ChunkKey {
	return ChunkKey{X: x, Y: y}
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("(%d, %d)", k.X, k.Y)
}

// Add returns the key offset by dx, dy
func (k ChunkKey) Add(dx, dy int32) ChunkKey {
	return ChunkKey{k.X + dx, k.Y + dy}
}

// KeysAround returns all chunk keys within radius of center, center included
func KeysAround(center ChunkKey, radius int32) []ChunkKey {
	if radius < 0 {
		return nil
	}
	keys := make([]ChunkKey, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			keys = append(keys, center.Add(dx, dy))
		}
	}
	return keys
}

// TriggerKey scopes a trigger to the chunk that spawned it
type TriggerKey struct {
	Chunk ChunkKey
	ID    uint16
}

func (k TriggerKey) String() string {
	return fmt.Sprintf("%s#%d", k.Chunk, k.ID)
}

// BlockTypeID identifies a block type (not a placed block)
type BlockTypeID uint16

// PropertyID identifies one property of an entity
type PropertyID uint16
