package dispatch

import (
	"net"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/proto"
)

// Conn sends and receives messages over one packet connection
type Conn struct {
	packetConn *netutil.PacketConnection
	enc        *proto.Encoder
}

// NewConn creates a Conn over a network connection
func NewConn(conn net.Conn, enc *proto.Encoder) *Conn {
	return &Conn{
		packetConn: netutil.NewPacketConnection(conn),
		enc:        enc,
	}
}

// Send encodes the message and writes it to the connection
func (c *Conn) Send(m proto.Message) error {
	packet := c.packetConn.NewPacket()
	c.enc.Encode(m, packet)
	err := c.packetConn.SendPacket(packet)
	packet.Release()
	return err
}

// Recv reads and decodes the next message
func (c *Conn) Recv() (proto.Message, error) {
	packet, err := c.packetConn.RecvPacket()
	if err != nil {
		return nil, err
	}
	defer packet.Release()
	return c.enc.Decode(packet)
}

// Serve receives messages until the connection fails, dispatching each one
//
// Messages are dispatched on the calling goroutine if queue is nil, otherwise posted to queue.
// Malformed or unknown messages are logged and skipped. A closed connection returns nil.
func (c *Conn) Serve(d *Dispatcher, queue *post.Queue) error {
	for {
		m, err := c.Recv()
		if err != nil {
			if errors.Cause(err) == proto.ErrUnknownMsgType || errors.Cause(err) == proto.ErrMalformedMessage {
				gwlog.Errorf("%s: %v", c, err)
				continue
			}
			if netutil.IsConnectionError(err) || c.IsClosed() {
				return nil
			}
			return errors.Wrapf(err, "%s recv failed", c)
		}

		if consts.DEBUG_PACKETS {
			gwlog.Debugf("%s RECV %s#%d", c, proto.MsgTypeName(m.Type()), m.Header().ID)
		}
		if queue == nil {
			d.Dispatch(m, c)
		} else {
			queue.Post(func() {
				d.Dispatch(m, c)
			})
		}
	}
}

// Close closes the connection
func (c *Conn) Close() error {
	return c.packetConn.Close()
}

// IsClosed returns if the connection is closed
func (c *Conn) IsClosed() bool {
	return c.packetConn.IsClosed()
}

// RemoteAddr returns the remote address
func (c *Conn) RemoteAddr() net.Addr {
	return c.packetConn.RemoteAddr()
}

func (c *Conn) String() string {
	return c.packetConn.String()
}

// Endpoint is one connection with its own dispatcher, the client side Port
type Endpoint struct {
	*Conn
	*Dispatcher
	queue *post.Queue
}

// NewEndpoint creates an Endpoint dispatching received messages through queue (nil to dispatch inline)
func NewEndpoint(conn net.Conn, enc *proto.Encoder, queue *post.Queue) *Endpoint {
	return &Endpoint{
		Conn:       NewConn(conn, enc),
		Dispatcher: NewDispatcher(),
		queue:      queue,
	}
}

// Serve receives and dispatches messages until the connection fails
func (ep *Endpoint) Serve() error {
	return ep.Conn.Serve(ep.Dispatcher, ep.queue)
}
