package proto

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

var (
	// ErrUnknownMsgType is returned when decoding a message type which is not registered
	ErrUnknownMsgType = errors.New("unknown message type")
	// ErrMalformedMessage is returned when the payload of a message can not be decoded
	ErrMalformedMessage = errors.New("malformed message")
)

// Message is a typed payload inside an Envelope
type Message interface {
	Type() MsgType
	Header() *Envelope
	EncodePayload(p *netutil.Packet)
	DecodePayload(p *netutil.Packet)
	// DependsOn returns the entities which must exist before the message can be applied
	DependsOn() []common.EntityID
	// SubMessages returns the messages this message decomposes into
	SubMessages() []Message
}

type msgInfo struct {
	name     string
	delivery DeliveryMethod
	channel  uint8
	new      func() Message
}

var (
	registryLock sync.RWMutex
	registry     = map[MsgType]msgInfo{}
)

// RegisterMsgType registers a message type so it can be decoded
func RegisterMsgType(mt MsgType, name string, delivery DeliveryMethod, channel uint8, new func() Message) {
	registryLock.Lock()
	defer registryLock.Unlock()
	if _, ok := registry[mt]; ok {
		gwlog.Panicf("message type %d registered twice", mt)
	}
	registry[mt] = msgInfo{name, delivery, channel, new}
}

func lookupMsgType(mt MsgType) (msgInfo, bool) {
	registryLock.RLock()
	info, ok := registry[mt]
	registryLock.RUnlock()
	return info, ok
}

// MsgTypeName returns the registered name of the message type
func MsgTypeName(mt MsgType) string {
	if info, ok := lookupMsgType(mt); ok {
		return info.name
	}
	return fmt.Sprintf("MsgType(%d)", mt)
}

// NewMessage creates an empty message of the type with its delivery and channel set
func NewMessage(mt MsgType) (Message, error) {
	info, ok := lookupMsgType(mt)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMsgType, "type %d", mt)
	}
	m := info.new()
	h := m.Header()
	h.Delivery = info.delivery
	h.Channel = info.channel
	return m, nil
}

// Encoder writes and reads messages with their envelope
//
// Wire shape: [type:uint16] [id:int32 if DebugIDs] [hasExpiry:bool] [delay ms:int64 if hasExpiry] [payload]
type Encoder struct {
	Issuer   *IdentityIssuer
	DebugIDs bool

	// DefaultExpiry is written for messages without their own expiry delay, zero leaves them to the receiver's default
	DefaultExpiry time.Duration
}

// NewEncoder creates an Encoder drawing identities from issuer
func NewEncoder(issuer *IdentityIssuer, debugIDs bool) *Encoder {
	return &Encoder{Issuer: issuer, DebugIDs: debugIDs}
}

// Encode assigns a fresh identity to the message and appends it to the packet
func (enc *Encoder) Encode(m Message, p *netutil.Packet) {
	h := m.Header()
	h.ID = enc.Issuer.Next()
	if info, ok := lookupMsgType(m.Type()); ok {
		h.Delivery = info.delivery
		h.Channel = info.channel
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	if h.ExpiryDelay == 0 && enc.DefaultExpiry != 0 {
		h.ExpiryDelay = enc.DefaultExpiry
	}
	h.ExpiryDelay = wireExpiry(h.ExpiryDelay)

	p.AppendUint16(uint16(m.Type()))
	if enc.DebugIDs {
		p.AppendInt32(h.ID)
	}
	p.AppendBool(h.hasCustomExpiry())
	if h.hasCustomExpiry() {
		if h.ExpiryDelay == NeverExpires {
			p.AppendInt64(-1)
		} else {
			p.AppendInt64(int64(h.ExpiryDelay / time.Millisecond))
		}
	}
	m.EncodePayload(p)

	if consts.DEBUG_PACKETS {
		gwlog.Debugf("encoded %s#%d: %d bytes", MsgTypeName(m.Type()), h.ID, p.GetPayloadLen())
	}
}

// wireExpiry rounds the delay up to whole milliseconds, negative delays never expire
func wireExpiry(d time.Duration) time.Duration {
	if d < 0 {
		return NeverExpires
	}
	if rem := d % time.Millisecond; rem != 0 {
		d += time.Millisecond - rem
	}
	return d
}

// Decode reads one message from the packet, stamping it as created now
func (enc *Encoder) Decode(p *netutil.Packet) (m Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = errors.Wrapf(ErrMalformedMessage, "%v", r)
		}
	}()

	mt := MsgType(p.ReadUint16())
	m, err = NewMessage(mt)
	if err != nil {
		return nil, err
	}

	h := m.Header()
	if enc.DebugIDs {
		h.ID = p.ReadInt32()
	}
	if p.ReadBool() {
		delay := p.ReadInt64()
		if delay < 0 {
			h.ExpiryDelay = NeverExpires
		} else {
			h.ExpiryDelay = time.Duration(delay) * time.Millisecond
		}
	}
	m.DecodePayload(p)
	h.CreatedAt = time.Now()
	if p.HasUnreadPayload() {
		gwlog.Warnf("%s: %d bytes left unread", MsgTypeName(mt), len(p.UnreadPayload()))
	}
	return m, nil
}
