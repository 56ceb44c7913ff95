package netutil

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
)

const (
	_MIN_PAYLOAD_CAP = 128
	// SIZE_FIELD_SIZE is the size of the payload length prefix of every packet
	SIZE_FIELD_SIZE = 4
	// MAX_PAYLOAD_LENGTH is the max payload length of a packet
	MAX_PAYLOAD_LENGTH = consts.MAX_PACKET_SIZE - SIZE_FIELD_SIZE
)

var (
	// NETWORK_ENDIAN is the byte order of all packet fields
	NETWORK_ENDIAN = binary.LittleEndian

	packetPool = sync.Pool{
		New: func() interface{} {
			return &Packet{
				bytes: make([]byte, SIZE_FIELD_SIZE, SIZE_FIELD_SIZE+_MIN_PAYLOAD_CAP),
			}
		},
	}
)

// Packet is a packet for sending data
//
// The first SIZE_FIELD_SIZE bytes hold the payload length, so the whole buffer can be
// written to a stream connection as one frame.
type Packet struct {
	readCursor uint32
	refcount   int64
	bytes      []byte
}

// NewPacket allocates a new packet
func NewPacket() *Packet {
	pkt := packetPool.Get().(*Packet)
	pkt.refcount = 1
	if pkt.GetPayloadLen() != 0 {
		gwlog.Panicf("NewPacket: payload should be empty, but is %d", pkt.GetPayloadLen())
	}
	return pkt
}

// NewPacketWithPayload allocates a packet holding a copy of payload
func NewPacketWithPayload(payload []byte) *Packet {
	pkt := NewPacket()
	pkt.AppendBytes(payload)
	return pkt
}

// AddRefCount adds reference count of packet
func (p *Packet) AddRefCount(add int64) {
	atomic.AddInt64(&p.refcount, add)
}

// Release releases the packet to packet pool
func (p *Packet) Release() {
	refcount := atomic.AddInt64(&p.refcount, -1)
	if refcount == 0 {
		p.ClearPayload()
		if cap(p.bytes) > consts.MAX_PACKET_SIZE/4 {
			// do not keep huge buffers in the pool
			p.bytes = make([]byte, SIZE_FIELD_SIZE, SIZE_FIELD_SIZE+_MIN_PAYLOAD_CAP)
		}
		packetPool.Put(p)
	} else if refcount < 0 {
		gwlog.Panicf("releasing packet with refcount=%d", p.refcount)
	}
}

// GetPayloadLen returns the payload length
func (p *Packet) GetPayloadLen() uint32 {
	return uint32(len(p.bytes) - SIZE_FIELD_SIZE)
}

// Payload returns the total payload of packet
func (p *Packet) Payload() []byte {
	return p.bytes[SIZE_FIELD_SIZE:]
}

// UnreadPayload returns the unread payload
func (p *Packet) UnreadPayload() []byte {
	return p.bytes[SIZE_FIELD_SIZE+p.readCursor:]
}

// HasUnreadPayload returns if there is payload not read yet
func (p *Packet) HasUnreadPayload() bool {
	return p.readCursor < p.GetPayloadLen()
}

// ClearPayload clears packet payload
func (p *Packet) ClearPayload() {
	p.readCursor = 0
	p.bytes = p.bytes[:SIZE_FIELD_SIZE]
}

// ResetRead moves the read cursor back to the beginning of payload
func (p *Packet) ResetRead() {
	p.readCursor = 0
}

// frame returns the size-prefixed bytes of the packet
func (p *Packet) frame() []byte {
	NETWORK_ENDIAN.PutUint32(p.bytes[:SIZE_FIELD_SIZE], p.GetPayloadLen())
	return p.bytes
}

func (p *Packet) extend(n int) []byte {
	oldLen := len(p.bytes)
	if oldLen+n > consts.MAX_PACKET_SIZE {
		gwlog.Panicf("Packet %p payload too large: %d+%d", p, oldLen-SIZE_FIELD_SIZE, n)
	}
	if oldLen+n > cap(p.bytes) {
		newCap := cap(p.bytes) * 2
		for newCap < oldLen+n {
			newCap *= 2
		}
		newBytes := make([]byte, oldLen, newCap)
		copy(newBytes, p.bytes)
		p.bytes = newBytes
	}
	p.bytes = p.bytes[:oldLen+n]
	return p.bytes[oldLen:]
}

func (p *Packet) consume(n uint32) []byte {
	pos := SIZE_FIELD_SIZE + p.readCursor
	if p.readCursor+n > p.GetPayloadLen() {
		gwlog.Panicf("Packet %p payload is %d, but reading %d+%d", p, p.GetPayloadLen(), p.readCursor, n)
	}
	p.readCursor += n
	return p.bytes[pos : pos+n]
}

// readListLen reads a list length and panics if the unread payload can not hold that many elements
func (p *Packet) readListLen(elemSize uint32) uint32 {
	n := p.ReadUint32()
	unread := p.GetPayloadLen() - p.readCursor
	if uint64(n)*uint64(elemSize) > uint64(unread) {
		gwlog.Panicf("Packet %p has %d bytes unread, but list of %d elements needs %d", p, unread, n, uint64(n)*uint64(elemSize))
	}
	return n
}

// AppendByte appends one byte to the end of payload
func (p *Packet) AppendByte(b byte) {
	p.extend(1)[0] = b
}

// ReadOneByte reads one byte from the beginning
func (p *Packet) ReadOneByte() byte {
	return p.consume(1)[0]
}

// AppendBool appends one byte 1/0 to the end of payload
func (p *Packet) AppendBool(b bool) {
	if b {
		p.AppendByte(1)
	} else {
		p.AppendByte(0)
	}
}

// ReadBool reads one byte 1/0 from the beginning of unread payload
func (p *Packet) ReadBool() bool {
	return p.ReadOneByte() != 0
}

// AppendUint16 appends one uint16 to the end of payload
func (p *Packet) AppendUint16(v uint16) {
	NETWORK_ENDIAN.PutUint16(p.extend(2), v)
}

// ReadUint16 reads one uint16 from the beginning of unread payload
func (p *Packet) ReadUint16() uint16 {
	return NETWORK_ENDIAN.Uint16(p.consume(2))
}

// AppendUint32 appends one uint32 to the end of payload
func (p *Packet) AppendUint32(v uint32) {
	NETWORK_ENDIAN.PutUint32(p.extend(4), v)
}

// ReadUint32 reads one uint32 from the beginning of unread payload
func (p *Packet) ReadUint32() uint32 {
	return NETWORK_ENDIAN.Uint32(p.consume(4))
}

// AppendUint64 appends one uint64 to the end of payload
func (p *Packet) AppendUint64(v uint64) {
	NETWORK_ENDIAN.PutUint64(p.extend(8), v)
}

// ReadUint64 reads one uint64 from the beginning of unread payload
func (p *Packet) ReadUint64() uint64 {
	return NETWORK_ENDIAN.Uint64(p.consume(8))
}

// AppendInt16 appends one int16 to the end of payload
func (p *Packet) AppendInt16(v int16) {
	p.AppendUint16(uint16(v))
}

// ReadInt16 reads one int16 from the beginning of unread payload
func (p *Packet) ReadInt16() int16 {
	return int16(p.ReadUint16())
}

// AppendInt32 appends one int32 to the end of payload
func (p *Packet) AppendInt32(v int32) {
	p.AppendUint32(uint32(v))
}

// ReadInt32 reads one int32 from the beginning of unread payload
func (p *Packet) ReadInt32() int32 {
	return int32(p.ReadUint32())
}

// AppendInt64 appends one int64 to the end of payload
func (p *Packet) AppendInt64(v int64) {
	p.AppendUint64(uint64(v))
}

// ReadInt64 reads one int64 from the beginning of unread payload
func (p *Packet) ReadInt64() int64 {
	return int64(p.ReadUint64())
}

// AppendFloat32 appends one float32 to the end of payload
func (p *Packet) AppendFloat32(f float32) {
	p.AppendUint32(math.Float32bits(f))
}

// ReadFloat32 reads one float32 from the beginning of unread payload
func (p *Packet) ReadFloat32() float32 {
	return math.Float32frombits(p.ReadUint32())
}

// AppendBytes appends slice of bytes to the end of payload
func (p *Packet) AppendBytes(v []byte) {
	copy(p.extend(len(v)), v)
}

// ReadBytes reads bytes from the beginning of unread payload; bytes are not copied
func (p *Packet) ReadBytes(size uint32) []byte {
	return p.consume(size)
}

// AppendVarStr appends a varsize string to the end of payload
func (p *Packet) AppendVarStr(s string) {
	p.AppendUint32(uint32(len(s)))
	copy(p.extend(len(s)), s)
}

// ReadVarStr reads a varsize string from the beginning of unread payload
func (p *Packet) ReadVarStr() string {
	blen := p.ReadUint32()
	return string(p.ReadBytes(blen))
}

// AppendVarBytes appends varsize bytes to the end of payload
func (p *Packet) AppendVarBytes(v []byte) {
	p.AppendUint32(uint32(len(v)))
	p.AppendBytes(v)
}

// ReadVarBytes reads a varsize slice of bytes from the beginning of unread payload
//
// The returned bytes are copied, so they stay valid after the packet is released
func (p *Packet) ReadVarBytes() []byte {
	blen := p.ReadUint32()
	b := p.ReadBytes(blen)
	res := make([]byte, len(b))
	copy(res, b)
	return res
}

// AppendEntityID appends one Entity ID to the end of payload
func (p *Packet) AppendEntityID(id common.EntityID) {
	p.AppendInt32(int32(id))
}

// ReadEntityID reads one EntityID from the beginning of unread payload
func (p *Packet) ReadEntityID() common.EntityID {
	return common.EntityID(p.ReadInt32())
}

// AppendEntityIDList appends a list of entity IDs to the end of payload
func (p *Packet) AppendEntityIDList(ids []common.EntityID) {
	p.AppendUint32(uint32(len(ids)))
	for _, id := range ids {
		p.AppendEntityID(id)
	}
}

// ReadEntityIDList reads a list of entity IDs from the beginning of unread payload
func (p *Packet) ReadEntityIDList() []common.EntityID {
	n := p.readListLen(4)
	ids := make([]common.EntityID, n)
	for i := range ids {
		ids[i] = p.ReadEntityID()
	}
	return ids
}

// AppendChunkKey appends one ChunkKey to the end of payload
func (p *Packet) AppendChunkKey(k common.ChunkKey) {
	p.AppendInt32(k.X)
	p.AppendInt32(k.Y)
}

// ReadChunkKey reads one ChunkKey from the beginning of unread payload
func (p *Packet) ReadChunkKey() common.ChunkKey {
	x := p.ReadInt32()
	y := p.ReadInt32()
	return common.ChunkKey{X: x, Y: y}
}

// AppendChunkKeyList appends a list of chunk keys to the end of payload
func (p *Packet) AppendChunkKeyList(keys []common.ChunkKey) {
	p.AppendUint32(uint32(len(keys)))
	for _, k := range keys {
		p.AppendChunkKey(k)
	}
}

// ReadChunkKeyList reads a list of chunk keys from the beginning of unread payload
func (p *Packet) ReadChunkKeyList() []common.ChunkKey {
	n := p.readListLen(8)
	keys := make([]common.ChunkKey, n)
	for i := range keys {
		keys[i] = p.ReadChunkKey()
	}
	return keys
}

// AppendTriggerKey appends one TriggerKey to the end of payload
func (p *Packet) AppendTriggerKey(k common.TriggerKey) {
	p.AppendChunkKey(k.Chunk)
	p.AppendUint16(k.ID)
}

// ReadTriggerKey reads one TriggerKey from the beginning of unread payload
func (p *Packet) ReadTriggerKey() common.TriggerKey {
	chunk := p.ReadChunkKey()
	id := p.ReadUint16()
	return common.TriggerKey{Chunk: chunk, ID: id}
}

// AppendStringList appends a list of strings to the end of payload
func (p *Packet) AppendStringList(list []string) {
	p.AppendUint16(uint16(len(list)))
	for _, s := range list {
		p.AppendVarStr(s)
	}
}

// ReadStringList reads a list of strings from the beginning of unread payload
func (p *Packet) ReadStringList() []string {
	listlen := int(p.ReadUint16())
	list := make([]string, listlen)
	for i := 0; i < listlen; i++ {
		list[i] = p.ReadVarStr()
	}
	return list
}

// AppendData appends one data of any type to the end of payload
func (p *Packet) AppendData(msg interface{}) {
	dataBytes, err := MSG_PACKER.PackMsg(msg, nil)
	if err != nil {
		gwlog.Panic(err)
	}

	p.AppendVarBytes(dataBytes)
}

// ReadData reads one data of any type from the beginning of unread payload
func (p *Packet) ReadData(msg interface{}) {
	b := p.ReadBytes(p.ReadUint32())
	err := MSG_PACKER.UnpackMsg(b, msg)
	if err != nil {
		gwlog.Panic(err)
	}
}
