package blocktype

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/world"
)

// ServerCache is the source of truth of block types
type ServerCache struct {
	port        dispatch.Port
	lock        sync.RWMutex
	types       map[common.BlockTypeID]*world.BlockProperties
	disposeOnce sync.Once
}

// NewServerCache creates a cache seeded with defs, answering block type requests received by port
func NewServerCache(port dispatch.Port, defs []*world.BlockProperties) (*ServerCache, error) {
	sc := &ServerCache{
		port:  port,
		types: make(map[common.BlockTypeID]*world.BlockProperties, len(defs)),
	}
	for _, bp := range defs {
		sc.types[bp.ID] = bp
	}
	if err := port.RegisterMessageCallback(proto.MT_BLOCK_TYPES_REQUESTED, sc.onBlockTypesRequested); err != nil {
		return nil, err
	}
	return sc, nil
}

// GetBlockProperties returns the block type, or ErrNotRegistered
func (sc *ServerCache) GetBlockProperties(id common.BlockTypeID) (*world.BlockProperties, error) {
	sc.lock.RLock()
	bp, ok := sc.types[id]
	sc.lock.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotRegistered, "block type %d", id)
	}
	return bp, nil
}

// RegisterProperties adds or overwrites the block type
func (sc *ServerCache) RegisterProperties(bp *world.BlockProperties) error {
	sc.lock.Lock()
	sc.types[bp.ID] = bp
	sc.lock.Unlock()
	return nil
}

// Len returns the number of block types
func (sc *ServerCache) Len() int {
	sc.lock.RLock()
	defer sc.lock.RUnlock()
	return len(sc.types)
}

// All returns every block type sorted by id
func (sc *ServerCache) All() []*world.BlockProperties {
	sc.lock.RLock()
	all := make([]*world.BlockProperties, 0, len(sc.types))
	for _, bp := range sc.types {
		all = append(all, bp)
	}
	sc.lock.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	return all
}

func (sc *ServerCache) onBlockTypesRequested(_ proto.Message, from dispatch.Peer) {
	if from == nil {
		gwlog.Warnf("blocktype: block types requested without a sender")
		return
	}
	for _, bp := range sc.All() {
		if err := from.Send(&proto.BlockData{Properties: bp}); err != nil {
			gwlog.Errorf("blocktype: send block type %d to %v failed: %v", bp.ID, from, err)
			return
		}
	}
}

// Dispose unregisters the request handler
func (sc *ServerCache) Dispose() {
	sc.disposeOnce.Do(func() {
		sc.port.UnregisterMessageCallback(proto.MT_BLOCK_TYPES_REQUESTED)
	})
}
