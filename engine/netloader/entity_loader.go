package netloader

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/world"
)

// EntityLoader requests entities from the server and applies entity messages to the live entity table
//
// Properties in world.ClientAuthoritativeProps of the local player are predicted by the client,
// so server pushes never overwrite them.
type EntityLoader struct {
	loader.EntityEvents

	port        dispatch.Port
	table       *world.EntityTable
	handlers    []handlerEntry
	disposeOnce sync.Once
}

// NewEntityLoader creates an EntityLoader mutating table on entity messages received by port
func NewEntityLoader(port dispatch.Port, table *world.EntityTable) (*EntityLoader, error) {
	el := &EntityLoader{
		port:  port,
		table: table,
	}
	el.handlers = []handlerEntry{
		{proto.MT_ENTITIES_CREATED, el.onEntitiesCreated},
		{proto.MT_ENTITIES_DESTROYED, el.onEntitiesDestroyed},
		{proto.MT_PROPERTIES_UPDATED, el.onPropertiesUpdated},
		{proto.MT_POSITION_UPDATED, el.onPositionUpdated},
		{proto.MT_PLAYER_ASSIGNED, el.onPlayerAssigned},
	}
	if err := registerAll(port, el.handlers); err != nil {
		return nil, err
	}
	return el, nil
}

// Table returns the live entity table
func (el *EntityLoader) Table() *world.EntityTable {
	return el.table
}

// LoadEntities requests the entities of one area
func (el *EntityLoader) LoadEntities(area common.ChunkKey) {
	send(el.port, &proto.EntitiesRequested{Areas: []common.ChunkKey{area}})
}

// LoadEntitiesIn requests the entities of each area, one request per area
func (el *EntityLoader) LoadEntitiesIn(areas []common.ChunkKey) {
	loader.LoadEach(el, areas)
}

func (el *EntityLoader) onEntitiesCreated(m proto.Message, _ dispatch.Peer) {
	msg := m.(*proto.EntitiesCreated)
	for _, e := range msg.Entities {
		el.table.Put(e)
	}
	el.Loaded.Fire(loader.EntityEvent{Area: msg.Area, Entities: msg.Entities})
}

func (el *EntityLoader) onEntitiesDestroyed(m proto.Message, _ dispatch.Peer) {
	msg := m.(*proto.EntitiesDestroyed)
	for _, id := range msg.IDs {
		el.table.Del(id)
	}
	el.Deleted.Fire(loader.EntityIDsEvent{IDs: msg.IDs})
}

func (el *EntityLoader) onPropertiesUpdated(m proto.Message, _ dispatch.Peer) {
	msg := m.(*proto.PropertiesUpdated)
	e := el.table.Get(msg.EntityID)
	if e == nil {
		// the entity was never loaded, replication is broken upstream
		err := errors.Wrapf(world.ErrEntityNotFound, "properties updated for entity %d", msg.EntityID)
		gwlog.Errorf("netloader: %s", err)
		panic(err)
	}

	if el.table.IsLocalPlayer(e.ID) {
		for _, prop := range msg.Properties {
			if world.IsClientAuthoritative(prop.ID) {
				if consts.DEBUG_LOADERS {
					gwlog.Debugf("netloader: ignoring property %d of local player %s", prop.ID, e)
				}
				continue
			}
			e.Set(prop.ID, prop.Value)
		}
	} else {
		e.Apply(msg.Properties)
	}
	el.fireUpdated(e)
}

func (el *EntityLoader) onPositionUpdated(m proto.Message, _ dispatch.Peer) {
	msg := m.(*proto.PositionUpdated)
	if el.table.IsLocalPlayer(msg.EntityID) {
		return
	}
	e := el.table.Get(msg.EntityID)
	if e == nil {
		// position updates are unreliable and may overtake the create or trail the destroy
		gwlog.Warnf("netloader: position updated for unknown entity %d", msg.EntityID)
		return
	}
	e.SetPosition(msg.Position)
	e.SetRotation(msg.Rotation)
	e.SetMovement(msg.Movement)
	el.fireUpdated(e)
}

func (el *EntityLoader) onPlayerAssigned(m proto.Message, _ dispatch.Peer) {
	id := m.(*proto.PlayerAssigned).EntityID
	gwlog.Infof("netloader: local player is entity %d", id)
	el.table.SetLocalPlayer(id)
}

func (el *EntityLoader) fireUpdated(e *world.Entity) {
	el.Updated.Fire(loader.EntityEvent{Area: e.Position().ChunkKey(), Entities: []*world.Entity{e}})
}

// Dispose unregisters the entity handlers
func (el *EntityLoader) Dispose() {
	el.disposeOnce.Do(func() {
		unregisterAll(el.port, el.handlers)
	})
}
