package world

import (
	"fmt"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

// Property ids known by the engine
const (
	PROP_POSITION common.PropertyID = iota + 1
	PROP_ROTATION
	PROP_MOVEMENT
	PROP_HEALTH
	PROP_NAME
	PROP_MODEL
)

// ClientAuthoritativeProps are predicted by the client for the local player and never overwritten by server pushes
var ClientAuthoritativeProps = map[common.PropertyID]bool{
	PROP_POSITION: true,
	PROP_MOVEMENT: true,
	PROP_ROTATION: true,
}

// IsClientAuthoritative returns if the property is owned by the client for its local player
func IsClientAuthoritative(id common.PropertyID) bool {
	return ClientAuthoritativeProps[id]
}

// PropertyKind is the type tag of a PropertyValue
type PropertyKind uint8

// Property kinds
const (
	KindNone PropertyKind = iota
	KindShort
	KindInt
	KindFloat
	KindString
	KindVector
	KindBytes
)

func (k PropertyKind) String() string {
	switch k {
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	case KindBytes:
		return "bytes"
	}
	return "none"
}

// PropertyValue is a typed property value
//
// Only the field matching Kind is meaningful.
type PropertyValue struct {
	Kind  PropertyKind
	Short int16   `msgpack:",omitempty" json:",omitempty"`
	Int   int32   `msgpack:",omitempty" json:",omitempty"`
	Float float32 `msgpack:",omitempty" json:",omitempty"`
	Str   string  `msgpack:",omitempty" json:",omitempty"`
	Vec   Vector3 `msgpack:",omitempty" json:",omitempty"`
	Bytes []byte  `msgpack:",omitempty" json:",omitempty"`
}

// ShortValue makes a short property value
func ShortValue(v int16) PropertyValue { return PropertyValue{Kind: KindShort, Short: v} }

// IntValue makes an int property value
func IntValue(v int32) PropertyValue { return PropertyValue{Kind: KindInt, Int: v} }

// FloatValue makes a float property value
func FloatValue(v float32) PropertyValue { return PropertyValue{Kind: KindFloat, Float: v} }

// StringValue makes a string property value
func StringValue(v string) PropertyValue { return PropertyValue{Kind: KindString, Str: v} }

// VectorValue makes a vector property value
func VectorValue(v Vector3) PropertyValue { return PropertyValue{Kind: KindVector, Vec: v} }

// BytesValue makes a bytes property value
func BytesValue(v []byte) PropertyValue { return PropertyValue{Kind: KindBytes, Bytes: v} }

// Interface returns the value as a plain Go value
func (v PropertyValue) Interface() interface{} {
	switch v.Kind {
	case KindShort:
		return v.Short
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindVector:
		return v.Vec
	case KindBytes:
		return v.Bytes
	}
	return nil
}

func (v PropertyValue) String() string {
	return fmt.Sprintf("%s:%v", v.Kind, v.Interface())
}

// Property is one property id with its value
type Property struct {
	ID    common.PropertyID
	Value PropertyValue
}

// AppendPropertyValue appends the value with its kind tag
func AppendPropertyValue(p *netutil.Packet, v PropertyValue) {
	p.AppendByte(byte(v.Kind))
	switch v.Kind {
	case KindShort:
		p.AppendInt16(v.Short)
	case KindInt:
		p.AppendInt32(v.Int)
	case KindFloat:
		p.AppendFloat32(v.Float)
	case KindString:
		p.AppendVarStr(v.Str)
	case KindVector:
		AppendVector3(p, v.Vec)
	case KindBytes:
		p.AppendVarBytes(v.Bytes)
	case KindNone:
	default:
		gwlog.Panicf("invalid property kind: %d", v.Kind)
	}
}

// ReadPropertyValue reads a value written by AppendPropertyValue
func ReadPropertyValue(p *netutil.Packet) PropertyValue {
	v := PropertyValue{Kind: PropertyKind(p.ReadOneByte())}
	switch v.Kind {
	case KindShort:
		v.Short = p.ReadInt16()
	case KindInt:
		v.Int = p.ReadInt32()
	case KindFloat:
		v.Float = p.ReadFloat32()
	case KindString:
		v.Str = p.ReadVarStr()
	case KindVector:
		v.Vec = ReadVector3(p)
	case KindBytes:
		v.Bytes = p.ReadVarBytes()
	case KindNone:
	default:
		gwlog.Panicf("invalid property kind: %d", v.Kind)
	}
	return v
}

// AppendProperties appends a list of properties
func AppendProperties(p *netutil.Packet, props []Property) {
	p.AppendUint16(uint16(len(props)))
	for _, prop := range props {
		p.AppendUint16(uint16(prop.ID))
		AppendPropertyValue(p, prop.Value)
	}
}

// ReadProperties reads a list of properties
func ReadProperties(p *netutil.Packet) []Property {
	n := int(p.ReadUint16())
	props := make([]Property, n)
	for i := range props {
		props[i].ID = common.PropertyID(p.ReadUint16())
		props[i].Value = ReadPropertyValue(p)
	}
	return props
}
