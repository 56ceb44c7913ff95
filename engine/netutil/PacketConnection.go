package netutil

import (
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwioutil"
	"github.com/xiaonanln/worldsync/engine/gwlog"
)

var (
	errPacketTooLarge = errors.New("packet too large")
	// ErrSendQueueFull is returned when the peer falls too far behind; the connection is closed
	ErrSendQueueFull = errors.New("send queue full")
	// ErrConnectionClosed is returned when sending on a closed connection
	ErrConnectionClosed = errors.New("connection closed")
)

// PacketConnection is a connection that send and receive data packets upon a network stream connection
//
// Sent packets are queued and written by a dedicated goroutine, so SendPacket never waits for the peer.
type PacketConnection struct {
	conn      Connection
	sendQueue chan *Packet
	closed    xnsyncutil.AtomicBool
	closeOnce sync.Once
	done      chan struct{}
}

// NewPacketConnection creates a packet connection based on network connection
//
// conn is wrapped by NewConnection without compression unless it is a Connection already.
func NewPacketConnection(conn net.Conn) *PacketConnection {
	c, ok := conn.(Connection)
	if !ok {
		c = NewConnection(conn, false)
	}
	pc := &PacketConnection{
		conn:      c,
		sendQueue: make(chan *Packet, consts.CONNECTION_SEND_QUEUE_SIZE),
		done:      make(chan struct{}),
	}
	go pc.sendLoop()
	return pc
}

// NewPacket allocates a new packet (usually for sending)
func (pc *PacketConnection) NewPacket() *Packet {
	return NewPacket()
}

// SendPacket queues the packet to be sent; it is safe to call from multiple goroutines
//
// The packet is retained until written, so the caller may release it right away.
// If the send queue is full the connection is closed and ErrSendQueueFull returned.
func (pc *PacketConnection) SendPacket(packet *Packet) error {
	if pc.closed.Load() {
		return ErrConnectionClosed
	}

	packet.AddRefCount(1)
	select {
	case pc.sendQueue <- packet:
		return nil
	default:
		packet.Release()
		gwlog.Warnf("%s: %d packets waiting to be sent, closing", pc, len(pc.sendQueue))
		pc.Close()
		return ErrSendQueueFull
	}
}

func (pc *PacketConnection) sendLoop() {
	for {
		select {
		case packet := <-pc.sendQueue:
			err := pc.writePacket(packet)
			// write whatever else is queued before flushing
			for err == nil && len(pc.sendQueue) > 0 {
				err = pc.writePacket(<-pc.sendQueue)
			}
			if err == nil {
				err = pc.conn.Flush()
			}
			if err != nil {
				if !pc.closed.Load() {
					gwlog.Warnf("%s: send failed: %v", pc, err)
				}
				pc.Close()
				pc.releaseQueued()
				return
			}
		case <-pc.done:
			pc.releaseQueued()
			return
		}
	}
}

func (pc *PacketConnection) writePacket(packet *Packet) error {
	defer packet.Release()
	frame := packet.frame()
	if consts.DEBUG_PACKETS {
		gwlog.Debugf("%s SEND PACKET: %v", pc, frame)
	}
	return errors.Wrap(gwioutil.WriteAll(pc.conn, frame), "send packet failed")
}

func (pc *PacketConnection) releaseQueued() {
	for {
		select {
		case packet := <-pc.sendQueue:
			packet.Release()
		default:
			return
		}
	}
}

// RecvPacket receives the next packet; the caller owns and must release it
func (pc *PacketConnection) RecvPacket() (*Packet, error) {
	var sizeBuf [SIZE_FIELD_SIZE]byte
	if err := gwioutil.ReadAll(pc.conn, sizeBuf[:]); err != nil {
		return nil, err
	}

	payloadLen := NETWORK_ENDIAN.Uint32(sizeBuf[:])
	if payloadLen > MAX_PAYLOAD_LENGTH {
		return nil, errors.Wrapf(errPacketTooLarge, "payload length %d", payloadLen)
	}

	packet := NewPacket()
	if err := gwioutil.ReadAll(pc.conn, packet.extend(int(payloadLen))); err != nil {
		packet.Release()
		return nil, err
	}

	if consts.DEBUG_PACKETS {
		gwlog.Debugf("%s RECV PACKET: payloadLen=%d", pc, payloadLen)
	}
	return packet, nil
}

// Close the connection, dropping packets not sent yet; closing more than once is a no-op
func (pc *PacketConnection) Close() error {
	var err error
	pc.closeOnce.Do(func() {
		pc.closed.Store(true)
		close(pc.done)
		err = pc.conn.Close()
	})
	return err
}

// IsClosed returns if the connection is closed
func (pc *PacketConnection) IsClosed() bool {
	return pc.closed.Load()
}

// RemoteAddr return the remote address
func (pc *PacketConnection) RemoteAddr() net.Addr {
	return pc.conn.RemoteAddr()
}

// LocalAddr returns the local address
func (pc *PacketConnection) LocalAddr() net.Addr {
	return pc.conn.LocalAddr()
}

func (pc *PacketConnection) String() string {
	return fmt.Sprintf("[%s >>> %s]", pc.LocalAddr(), pc.RemoteAddr())
}
