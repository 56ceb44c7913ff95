package netutil

import (
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
)

// IsConnectionError check if the error is a connection error (close)
func IsConnectionError(_err interface{}) bool {
	err, ok := _err.(error)
	if !ok {
		return false
	}

	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF || err == io.ErrClosedPipe || err == net.ErrClosed {
		return true
	}
	if err == ErrSendQueueFull || err == ErrConnectionClosed {
		return true
	}

	neterr, ok := err.(net.Error)
	if !ok {
		return false
	}
	if neterr.Timeout() {
		return false
	}

	return true
}

// ConnectTCP connects to addr in TCP
func ConnectTCP(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connect tcp %s failed", addr)
	}
	tcpConn := conn.(*net.TCPConn)
	tcpConn.SetWriteBuffer(consts.CONNECTION_WRITE_BUFFER_SIZE)
	tcpConn.SetReadBuffer(consts.CONNECTION_READ_BUFFER_SIZE)
	tcpConn.SetNoDelay(consts.CONNECTION_SET_TCP_NO_DELAY)
	return conn, nil
}

// ServeForever runs the function forever
//
// ServeForever will restart the function call if function panics
func ServeForever(f func()) {
	for {
		runServe(f)
		if consts.DEBUG_MODE { // we just quit in debug mode
			os.Exit(2)
		}
	}
}

func runServe(f func()) {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("ServeForever: func %p quited with error %v", f, err)
		}
	}()

	f()
	gwlog.Debugf("ServeForever: func %p returns", f)
}
