package netloader

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/world"
)

// ChunkLoader requests chunks from the server
//
// Generated and Unavailable never fire: the server answers every request with chunk updates.
type ChunkLoader struct {
	loader.ChunkEvents

	port        dispatch.Port
	disposeOnce sync.Once
}

// NewChunkLoader creates a ChunkLoader handling chunk updates received by port
func NewChunkLoader(port dispatch.Port) (*ChunkLoader, error) {
	cl := &ChunkLoader{port: port}
	if err := port.RegisterMessageCallback(proto.MT_CHUNK_UPDATED, cl.onChunkUpdated); err != nil {
		return nil, err
	}
	return cl, nil
}

// LoadChunks sends one request for all keys
func (cl *ChunkLoader) LoadChunks(keys []common.ChunkKey) {
	if len(keys) == 0 {
		return
	}
	if consts.DEBUG_LOADERS {
		gwlog.Debugf("netloader: requesting chunks %v", keys)
	}
	send(cl.port, &proto.ChunksRequested{Keys: keys})
}

func (cl *ChunkLoader) onChunkUpdated(m proto.Message, _ dispatch.Peer) {
	chunk := m.(*proto.ChunkUpdated).Chunk
	cl.Loaded.Fire(loader.ChunkEvent{Chunks: []*world.Chunk{chunk}})
}

// Dispose unregisters the chunk update handler
func (cl *ChunkLoader) Dispose() {
	cl.disposeOnce.Do(func() {
		cl.port.UnregisterMessageCallback(proto.MT_CHUNK_UPDATED)
	})
}
