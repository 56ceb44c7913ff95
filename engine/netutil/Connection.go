package netutil

import (
	"net"

	"github.com/xiaonanln/netconnutil"
	"github.com/xiaonanln/worldsync/engine/consts"
)

// Connection is a network connection buffering writes until Flush
type Connection interface {
	netconnutil.FlushableConn
}

// NetConn is a Connection writing through, Flush does nothing
type NetConn struct {
	net.Conn
}

// Flush does nothing
func (n NetConn) Flush() error {
	return nil
}

// NewConnection wraps conn: temporary errors are retried and io is buffered, the stream is snappy compressed if compress is set
//
// Both ends of a connection must agree on compress.
func NewConnection(_conn net.Conn, compress bool) Connection {
	_conn = netconnutil.NewNoTempErrorConn(_conn)
	var conn Connection = NetConn{_conn}
	if compress {
		conn = netconnutil.NewSnappyConn(conn)
	}
	conn = netconnutil.NewBufferedConn(conn, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE)
	return conn
}
