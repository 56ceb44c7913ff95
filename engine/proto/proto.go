package proto

// MsgType is the type of message types
type MsgType uint16

const (
	// MT_INVALID is the invalid message type
	MT_INVALID MsgType = iota
	// MT_CHUNKS_REQUESTED is sent by client to request chunks by keys
	MT_CHUNKS_REQUESTED
	// MT_CHUNK_UPDATED carries one chunk to the client
	MT_CHUNK_UPDATED
	// MT_ENTITIES_REQUESTED is sent by client to request entities of areas
	MT_ENTITIES_REQUESTED
	// MT_ENTITIES_CREATED carries created entities of one area
	MT_ENTITIES_CREATED
	// MT_ENTITIES_DESTROYED carries ids of destroyed entities
	MT_ENTITIES_DESTROYED
	// MT_PROPERTIES_UPDATED carries property changes of one entity
	MT_PROPERTIES_UPDATED
	// MT_POSITION_UPDATED carries position, rotation and movement of one entity
	MT_POSITION_UPDATED
	// MT_BLOCK_TYPES_REQUESTED is sent by client to request all block types
	MT_BLOCK_TYPES_REQUESTED
	// MT_BLOCK_DATA carries one block type
	MT_BLOCK_DATA
	// MT_TRIGGERS_REQUESTED is sent by client to request triggers of areas
	MT_TRIGGERS_REQUESTED
	// MT_TRIGGERS_CREATED carries triggers of one area
	MT_TRIGGERS_CREATED
	// MT_TRIGGERS_DELETED carries keys of removed triggers
	MT_TRIGGERS_DELETED
	// MT_PLAYER_ASSIGNED tells the client which entity it controls
	MT_PLAYER_ASSIGNED
)

// DeliveryMethod is the reliability and ordering class requested for a message
type DeliveryMethod uint8

// Delivery methods
const (
	Unreliable DeliveryMethod = iota
	UnreliableSequenced
	ReliableUnordered
	ReliableSequenced
	ReliableOrdered
)

func (dm DeliveryMethod) String() string {
	switch dm {
	case Unreliable:
		return "Unreliable"
	case UnreliableSequenced:
		return "UnreliableSequenced"
	case ReliableUnordered:
		return "ReliableUnordered"
	case ReliableSequenced:
		return "ReliableSequenced"
	case ReliableOrdered:
		return "ReliableOrdered"
	}
	return "DeliveryMethod(?)"
}

// IsReliable returns if messages are retransmitted until received
func (dm DeliveryMethod) IsReliable() bool {
	return dm >= ReliableUnordered
}

// Channels used to separate ordering streams
const (
	CHANNEL_DEFAULT uint8 = iota
	CHANNEL_WORLD
	CHANNEL_MOVEMENT
)
