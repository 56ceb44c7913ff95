package blocktype

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/world"
)

// ClientCache is populated only by block data pushed from the server
//
// Lookups of unknown block types return the default, so the client stays renderable before sync completes.
type ClientCache struct {
	port        dispatch.Port
	def         *world.BlockProperties
	lock        sync.RWMutex
	types       map[common.BlockTypeID]*world.BlockProperties
	disposeOnce sync.Once
}

// NewClientCache registers the block data handler on port and requests all block types
func NewClientCache(port dispatch.Port, def *world.BlockProperties) (*ClientCache, error) {
	cc := &ClientCache{
		port:  port,
		def:   def,
		types: map[common.BlockTypeID]*world.BlockProperties{},
	}
	if err := port.RegisterMessageCallback(proto.MT_BLOCK_DATA, cc.onBlockData); err != nil {
		return nil, err
	}
	if err := port.Send(&proto.BlockTypesRequested{}); err != nil {
		port.UnregisterMessageCallback(proto.MT_BLOCK_DATA)
		return nil, errors.Wrap(err, "request block types failed")
	}
	return cc, nil
}

// GetBlockProperties returns the block type pushed by the server, or the default; it never fails
func (cc *ClientCache) GetBlockProperties(id common.BlockTypeID) (*world.BlockProperties, error) {
	cc.lock.RLock()
	bp, ok := cc.types[id]
	cc.lock.RUnlock()
	if !ok {
		return cc.def, nil
	}
	return bp, nil
}

// RegisterProperties always fails on the client
func (cc *ClientCache) RegisterProperties(bp *world.BlockProperties) error {
	return errors.Wrapf(ErrClientRegister, "block type %d", bp.ID)
}

// Len returns the number of block types received
func (cc *ClientCache) Len() int {
	cc.lock.RLock()
	defer cc.lock.RUnlock()
	return len(cc.types)
}

// Default returns the block type returned for unknown ids
func (cc *ClientCache) Default() *world.BlockProperties {
	return cc.def
}

func (cc *ClientCache) onBlockData(m proto.Message, _ dispatch.Peer) {
	bp := m.(*proto.BlockData).Properties
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("blocktype: received %s", bp)
	}
	cc.lock.Lock()
	cc.types[bp.ID] = bp
	cc.lock.Unlock()
}

// Dispose unregisters the block data handler
func (cc *ClientCache) Dispose() {
	cc.disposeOnce.Do(func() {
		cc.port.UnregisterMessageCallback(proto.MT_BLOCK_DATA)
	})
}
