package proto

import (
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/world"
)

func init() {
	RegisterMsgType(MT_CHUNKS_REQUESTED, "ChunksRequested", ReliableOrdered, CHANNEL_WORLD, func() Message { return &ChunksRequested{} })
	RegisterMsgType(MT_CHUNK_UPDATED, "ChunkUpdated", ReliableOrdered, CHANNEL_WORLD, func() Message { return &ChunkUpdated{} })
	RegisterMsgType(MT_ENTITIES_REQUESTED, "EntitiesRequested", ReliableOrdered, CHANNEL_WORLD, func() Message { return &EntitiesRequested{} })
	RegisterMsgType(MT_ENTITIES_CREATED, "EntitiesCreated", ReliableOrdered, CHANNEL_WORLD, func() Message { return &EntitiesCreated{} })
	RegisterMsgType(MT_ENTITIES_DESTROYED, "EntitiesDestroyed", ReliableOrdered, CHANNEL_WORLD, func() Message { return &EntitiesDestroyed{} })
	RegisterMsgType(MT_PROPERTIES_UPDATED, "PropertiesUpdated", ReliableSequenced, CHANNEL_WORLD, func() Message { return &PropertiesUpdated{} })
	RegisterMsgType(MT_POSITION_UPDATED, "PositionUpdated", UnreliableSequenced, CHANNEL_MOVEMENT, func() Message { return &PositionUpdated{} })
	RegisterMsgType(MT_BLOCK_TYPES_REQUESTED, "BlockTypesRequested", ReliableOrdered, CHANNEL_DEFAULT, func() Message { return &BlockTypesRequested{} })
	RegisterMsgType(MT_BLOCK_DATA, "BlockData", ReliableOrdered, CHANNEL_DEFAULT, func() Message { return &BlockData{} })
	RegisterMsgType(MT_TRIGGERS_REQUESTED, "TriggersRequested", ReliableOrdered, CHANNEL_WORLD, func() Message { return &TriggersRequested{} })
	RegisterMsgType(MT_TRIGGERS_CREATED, "TriggersCreated", ReliableOrdered, CHANNEL_WORLD, func() Message { return &TriggersCreated{} })
	RegisterMsgType(MT_TRIGGERS_DELETED, "TriggersDeleted", ReliableOrdered, CHANNEL_WORLD, func() Message { return &TriggersDeleted{} })
	RegisterMsgType(MT_PLAYER_ASSIGNED, "PlayerAssigned", ReliableOrdered, CHANNEL_DEFAULT, func() Message { return &PlayerAssigned{} })
}

// ChunksRequested requests chunks by keys
type ChunksRequested struct {
	Envelope
	Keys []common.ChunkKey
}

func (m *ChunksRequested) Type() MsgType { return MT_CHUNKS_REQUESTED }
func (m *ChunksRequested) EncodePayload(p *netutil.Packet) { p.AppendChunkKeyList(m.Keys) }
func (m *ChunksRequested) DecodePayload(p *netutil.Packet) { m.Keys = p.ReadChunkKeyList() }

// ChunkUpdated carries one chunk
type ChunkUpdated struct {
	Envelope
	Chunk *world.Chunk
}

func (m *ChunkUpdated) Type() MsgType { return MT_CHUNK_UPDATED }
func (m *ChunkUpdated) EncodePayload(p *netutil.Packet) { world.AppendChunk(p, m.Chunk) }
func (m *ChunkUpdated) DecodePayload(p *netutil.Packet) { m.Chunk = world.ReadChunk(p) }

// EntitiesRequested requests the entities of areas
type EntitiesRequested struct {
	Envelope
	Areas []common.ChunkKey
}

func (m *EntitiesRequested) Type() MsgType { return MT_ENTITIES_REQUESTED }
func (m *EntitiesRequested) EncodePayload(p *netutil.Packet) { p.AppendChunkKeyList(m.Areas) }
func (m *EntitiesRequested) DecodePayload(p *netutil.Packet) { m.Areas = p.ReadChunkKeyList() }

// EntitiesCreated carries entities created in one area
type EntitiesCreated struct {
	Envelope
	Area     common.ChunkKey
	Entities []*world.Entity
}

func (m *EntitiesCreated) Type() MsgType { return MT_ENTITIES_CREATED }

func (m *EntitiesCreated) EncodePayload(p *netutil.Packet) {
	p.AppendChunkKey(m.Area)
	p.AppendUint16(uint16(len(m.Entities)))
	for _, e := range m.Entities {
		world.AppendEntity(p, e)
	}
}

func (m *EntitiesCreated) DecodePayload(p *netutil.Packet) {
	m.Area = p.ReadChunkKey()
	n := int(p.ReadUint16())
	m.Entities = make([]*world.Entity, n)
	for i := range m.Entities {
		m.Entities[i] = world.ReadEntity(p)
	}
}

// SubMessages splits a message of many entities into one message per entity
func (m *EntitiesCreated) SubMessages() []Message {
	if len(m.Entities) <= 1 {
		return nil
	}
	subs := make([]Message, len(m.Entities))
	for i, e := range m.Entities {
		sub := &EntitiesCreated{Area: m.Area, Entities: []*world.Entity{e}}
		sub.Delivery, sub.Channel = m.Delivery, m.Channel
		sub.CreatedAt, sub.ExpiryDelay = m.CreatedAt, m.ExpiryDelay
		subs[i] = sub
	}
	return subs
}

// EntitiesDestroyed carries ids of destroyed entities
type EntitiesDestroyed struct {
	Envelope
	IDs []common.EntityID
}

func (m *EntitiesDestroyed) Type() MsgType { return MT_ENTITIES_DESTROYED }
func (m *EntitiesDestroyed) EncodePayload(p *netutil.Packet) { p.AppendEntityIDList(m.IDs) }
func (m *EntitiesDestroyed) DecodePayload(p *netutil.Packet) { m.IDs = p.ReadEntityIDList() }
func (m *EntitiesDestroyed) DependsOn() []common.EntityID { return m.IDs }

// PropertiesUpdated carries changed properties of one entity
type PropertiesUpdated struct {
	Envelope
	EntityID   common.EntityID
	Properties []world.Property
}

func (m *PropertiesUpdated) Type() MsgType { return MT_PROPERTIES_UPDATED }

func (m *PropertiesUpdated) EncodePayload(p *netutil.Packet) {
	p.AppendEntityID(m.EntityID)
	world.AppendProperties(p, m.Properties)
}

func (m *PropertiesUpdated) DecodePayload(p *netutil.Packet) {
	m.EntityID = p.ReadEntityID()
	m.Properties = world.ReadProperties(p)
}

func (m *PropertiesUpdated) DependsOn() []common.EntityID { return []common.EntityID{m.EntityID} }

// PositionUpdated carries the movement state of one entity
type PositionUpdated struct {
	Envelope
	EntityID common.EntityID
	Position world.Vector3
	Rotation world.Vector3
	Movement world.Vector3
}

func (m *PositionUpdated) Type() MsgType { return MT_POSITION_UPDATED }

func (m *PositionUpdated) EncodePayload(p *netutil.Packet) {
	p.AppendEntityID(m.EntityID)
	world.AppendVector3(p, m.Position)
	world.AppendVector3(p, m.Rotation)
	world.AppendVector3(p, m.Movement)
}

func (m *PositionUpdated) DecodePayload(p *netutil.Packet) {
	m.EntityID = p.ReadEntityID()
	m.Position = world.ReadVector3(p)
	m.Rotation = world.ReadVector3(p)
	m.Movement = world.ReadVector3(p)
}

func (m *PositionUpdated) DependsOn() []common.EntityID { return []common.EntityID{m.EntityID} }

// BlockTypesRequested requests every block type known by the server
type BlockTypesRequested struct {
	Envelope
}

func (m *BlockTypesRequested) Type() MsgType { return MT_BLOCK_TYPES_REQUESTED }
func (m *BlockTypesRequested) EncodePayload(*netutil.Packet) {}
func (m *BlockTypesRequested) DecodePayload(*netutil.Packet) {}

// BlockData carries one block type
type BlockData struct {
	Envelope
	Properties *world.BlockProperties
}

func (m *BlockData) Type() MsgType { return MT_BLOCK_DATA }
func (m *BlockData) EncodePayload(p *netutil.Packet) { world.AppendBlockProperties(p, m.Properties) }
func (m *BlockData) DecodePayload(p *netutil.Packet) { m.Properties = world.ReadBlockProperties(p) }

// TriggersRequested requests the triggers of areas
type TriggersRequested struct {
	Envelope
	Areas []common.ChunkKey
}

func (m *TriggersRequested) Type() MsgType { return MT_TRIGGERS_REQUESTED }
func (m *TriggersRequested) EncodePayload(p *netutil.Packet) { p.AppendChunkKeyList(m.Areas) }
func (m *TriggersRequested) DecodePayload(p *netutil.Packet) { m.Areas = p.ReadChunkKeyList() }

// TriggersCreated carries the triggers of one area
type TriggersCreated struct {
	Envelope
	Area     common.ChunkKey
	Triggers []*world.Trigger
}

func (m *TriggersCreated) Type() MsgType { return MT_TRIGGERS_CREATED }

func (m *TriggersCreated) EncodePayload(p *netutil.Packet) {
	p.AppendChunkKey(m.Area)
	p.AppendUint16(uint16(len(m.Triggers)))
	for _, t := range m.Triggers {
		world.AppendTrigger(p, t)
	}
}

func (m *TriggersCreated) DecodePayload(p *netutil.Packet) {
	m.Area = p.ReadChunkKey()
	n := int(p.ReadUint16())
	m.Triggers = make([]*world.Trigger, n)
	for i := range m.Triggers {
		m.Triggers[i] = world.ReadTrigger(p)
	}
}

// TriggersDeleted carries keys of removed triggers
type TriggersDeleted struct {
	Envelope
	Keys []common.TriggerKey
}

func (m *TriggersDeleted) Type() MsgType { return MT_TRIGGERS_DELETED }

func (m *TriggersDeleted) EncodePayload(p *netutil.Packet) {
	p.AppendUint16(uint16(len(m.Keys)))
	for _, k := range m.Keys {
		p.AppendTriggerKey(k)
	}
}

func (m *TriggersDeleted) DecodePayload(p *netutil.Packet) {
	n := int(p.ReadUint16())
	m.Keys = make([]common.TriggerKey, n)
	for i := range m.Keys {
		m.Keys[i] = p.ReadTriggerKey()
	}
}

// PlayerAssigned tells the client which entity it controls
type PlayerAssigned struct {
	Envelope
	EntityID common.EntityID
}

func (m *PlayerAssigned) Type() MsgType { return MT_PLAYER_ASSIGNED }
func (m *PlayerAssigned) EncodePayload(p *netutil.Packet) { p.AppendEntityID(m.EntityID) }
func (m *PlayerAssigned) DecodePayload(p *netutil.Packet) { m.EntityID = p.ReadEntityID() }
