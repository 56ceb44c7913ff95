package storagecommon

import (
	"fmt"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/world"
)

// WorldStorage defines the interface of saved world state backends
//
// Reads of missing records return no data and no error.
type WorldStorage interface {
	ReadChunk(key common.ChunkKey) (*world.Chunk, error)
	WriteChunk(chunk *world.Chunk) error
	ReadEntities(area common.ChunkKey) (records []world.EntityRecord, found bool, err error)
	WriteEntities(area common.ChunkKey, records []world.EntityRecord) error
	Close()
	IsEOF(err error) bool
}

// KeyString formats the chunk key for use in file names and database keys
func KeyString(key common.ChunkKey) string {
	return fmt.Sprintf("%d_%d", key.X, key.Y)
}

// ParseKeyString parses a string formatted by KeyString
func ParseKeyString(s string) (common.ChunkKey, error) {
	var key common.ChunkKey
	_, err := fmt.Sscanf(s, "%d_%d", &key.X, &key.Y)
	return key, err
}
