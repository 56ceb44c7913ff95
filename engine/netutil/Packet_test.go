package netutil

import (
	"net"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
)

func TestPacketAppendRead(t *testing.T) {
	p := NewPacket()
	defer p.Release()

	p.AppendByte(7)
	p.AppendBool(true)
	p.AppendUint16(0xBEEF)
	p.AppendInt32(-12345)
	p.AppendInt64(-1)
	p.AppendFloat32(1.5)
	p.AppendVarStr("stone")
	p.AppendEntityIDList([]common.EntityID{1, 2, 3})
	p.AppendChunkKey(common.MakeChunkKey(-4, 9))
	p.AppendTriggerKey(common.TriggerKey{Chunk: common.MakeChunkKey(1, 1), ID: 3})
	p.AppendStringList([]string{"a", "bc"})
	p.AppendData(map[string]interface{}{"hp": 10})

	assert.Equal(t, byte(7), p.ReadOneByte())
	assert.Equal(t, true, p.ReadBool())
	assert.Equal(t, uint16(0xBEEF), p.ReadUint16())
	assert.Equal(t, int32(-12345), p.ReadInt32())
	assert.Equal(t, int64(-1), p.ReadInt64())
	assert.Equal(t, float32(1.5), p.ReadFloat32())
	assert.Equal(t, "stone", p.ReadVarStr())
	assert.Equal(t, []common.EntityID{1, 2, 3}, p.ReadEntityIDList())
	assert.Equal(t, common.MakeChunkKey(-4, 9), p.ReadChunkKey())
	assert.Equal(t, common.TriggerKey{Chunk: common.MakeChunkKey(1, 1), ID: 3}, p.ReadTriggerKey())
	assert.Equal(t, []string{"a", "bc"}, p.ReadStringList())
	var data map[string]interface{}
	p.ReadData(&data)
	assert.Equal(t, 1, len(data))
	assert.Equal(t, false, p.HasUnreadPayload())
}

func TestPacketReadPastEnd(t *testing.T) {
	p := NewPacket()
	defer p.Release()
	p.AppendByte(1)

	defer func() {
		assert.T(t, recover() != nil)
	}()
	p.ReadUint32()
}

func TestPacketReadListLongerThanPayload(t *testing.T) {
	p := NewPacket()
	defer p.Release()
	p.AppendUint32(1 << 30)
	p.AppendChunkKey(common.MakeChunkKey(1, 2))

	defer func() {
		assert.T(t, recover() != nil)
		assert.Equal(t, uint32(4), p.readCursor)
	}()
	p.ReadChunkKeyList()
}

func TestPacketConnection(t *testing.T) {
	c1, c2 := net.Pipe()
	testPacketConnection(t, NewPacketConnection(c1), NewPacketConnection(c2))
}

func TestCompressedPacketConnection(t *testing.T) {
	c1, c2 := net.Pipe()
	testPacketConnection(t, NewPacketConnection(NewConnection(c1, true)), NewPacketConnection(NewConnection(c2, true)))
}

func testPacketConnection(t *testing.T, pc1, pc2 *PacketConnection) {
	defer pc1.Close()
	defer pc2.Close()

	go func() {
		for i := 0; i < 3; i++ {
			p := pc1.NewPacket()
			p.AppendUint32(uint32(i))
			p.AppendVarStr("hello")
			pc1.SendPacket(p)
			p.Release()
		}
	}()

	for i := 0; i < 3; i++ {
		p, err := pc2.RecvPacket()
		if err != nil {
			t.Fatalf("recv failed: %v", err)
		}
		assert.Equal(t, uint32(i), p.ReadUint32())
		assert.Equal(t, "hello", p.ReadVarStr())
		p.Release()
	}

	pc1.Close()
	assert.T(t, pc1.IsClosed())
	_, err := pc2.RecvPacket()
	assert.T(t, IsConnectionError(err))
	assert.Equal(t, nil, pc1.Close())
}

func TestSendPacketPeerNotReading(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	pc := NewPacketConnection(c1)
	defer pc.Close()

	payload := make([]byte, consts.BUFFERED_WRITE_BUFFSIZE*2)
	sent := make(chan error, 1)
	go func() {
		for i := 0; i < consts.CONNECTION_SEND_QUEUE_SIZE/2; i++ {
			p := pc.NewPacket()
			p.AppendVarBytes(payload)
			err := pc.SendPacket(p)
			p.Release()
			if err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	select {
	case err := <-sent:
		assert.Equal(t, nil, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("SendPacket blocked while the peer is not reading")
	}
	assert.T(t, !pc.IsClosed())
}

func TestSendQueueFullClosesConnection(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	pc := NewPacketConnection(c1)
	defer pc.Close()

	payload := make([]byte, consts.BUFFERED_WRITE_BUFFSIZE*2)
	var err error
	for i := 0; i < consts.CONNECTION_SEND_QUEUE_SIZE+10 && err == nil; i++ {
		p := pc.NewPacket()
		p.AppendVarBytes(payload)
		err = pc.SendPacket(p)
		p.Release()
	}
	assert.Equal(t, ErrSendQueueFull, err)
	assert.T(t, pc.IsClosed())

	p := pc.NewPacket()
	defer p.Release()
	assert.Equal(t, ErrConnectionClosed, pc.SendPacket(p))
}
