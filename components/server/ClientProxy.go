package server

import (
	"fmt"

	"github.com/xiaonanln/go-aoi"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/world"
)

// ClientProxy is one connected client and the player entity it controls
type ClientProxy struct {
	conn      *dispatch.Conn
	player    *world.Entity
	aoi       aoi.AOI
	neighbors map[common.EntityID]*ClientProxy
}

func newClientProxy(conn *dispatch.Conn, player *world.Entity, aoiDistance float32) *ClientProxy {
	cp := &ClientProxy{
		conn:      conn,
		player:    player,
		neighbors: map[common.EntityID]*ClientProxy{},
	}
	aoi.InitAOI(&cp.aoi, aoi.Coord(aoiDistance), cp, cp)
	return cp
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%d@%s>", cp.player.ID, cp.conn)
}

// send sends the message to the client, failures are logged
func (cp *ClientProxy) send(m proto.Message) {
	if cp.conn.IsClosed() {
		return
	}
	if err := cp.conn.Send(m); err != nil {
		if netutil.IsConnectionError(err) {
			gwlog.Debugf("%s: send %s failed: %v", cp, proto.MsgTypeName(m.Type()), err)
		} else {
			gwlog.Errorf("%s: send %s failed: %v", cp, proto.MsgTypeName(m.Type()), err)
		}
	}
}

// sendToNeighbors sends the message to every client whose player is in the AOI of this one
func (cp *ClientProxy) sendToNeighbors(m proto.Message) {
	for _, other := range cp.neighbors {
		other.send(m)
	}
}

// OnEnterAOI starts syncing the player of other to this client
func (cp *ClientProxy) OnEnterAOI(otherAoi *aoi.AOI) {
	other := otherAoi.Data.(*ClientProxy)
	cp.neighbors[other.player.ID] = other
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s: %s entered AOI", cp, other)
	}
	cp.send(&proto.EntitiesCreated{
		Area:     other.player.Position().ChunkKey(),
		Entities: []*world.Entity{other.player},
	})
}

// OnLeaveAOI stops syncing the player of other to this client
func (cp *ClientProxy) OnLeaveAOI(otherAoi *aoi.AOI) {
	other := otherAoi.Data.(*ClientProxy)
	delete(cp.neighbors, other.player.ID)
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s: %s left AOI", cp, other)
	}
	cp.send(&proto.EntitiesDestroyed{IDs: []common.EntityID{other.player.ID}})
}
