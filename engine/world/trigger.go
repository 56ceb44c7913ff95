package world

import (
	"fmt"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

// TriggerKind is the kind of a trigger
type TriggerKind uint8

// Trigger kinds
const (
	TRIGGER_AREA TriggerKind = iota + 1
	TRIGGER_SPAWN
	TRIGGER_TIMED
)

// Trigger is an event source scoped to the chunk that spawned it
type Trigger struct {
	Key      common.TriggerKey
	Kind     TriggerKind
	Position Vector3
	Radius   float32
}

func (t *Trigger) String() string {
	return fmt.Sprintf("Trigger<%s|%d>", t.Key, t.Kind)
}

// Contains returns if pos is inside the trigger radius
func (t *Trigger) Contains(pos Vector3) bool {
	return t.Position.DistanceTo(pos) <= t.Radius
}

// AppendTrigger appends the trigger to the packet
func AppendTrigger(p *netutil.Packet, t *Trigger) {
	p.AppendTriggerKey(t.Key)
	p.AppendByte(byte(t.Kind))
	AppendVector3(p, t.Position)
	p.AppendFloat32(t.Radius)
}

// ReadTrigger reads a trigger written by AppendTrigger
func ReadTrigger(p *netutil.Packet) *Trigger {
	t := &Trigger{}
	t.Key = p.ReadTriggerKey()
	t.Kind = TriggerKind(p.ReadOneByte())
	t.Position = ReadVector3(p)
	t.Radius = p.ReadFloat32()
	return t
}
