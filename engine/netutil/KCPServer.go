package netutil

import (
	"net"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xtaci/kcp-go"
)

// ServeKCP serves on specified address as KCP server, handing sessions to the same delegate as TCP
func ServeKCP(listenAddr string, delegate TCPServerDelegate) error {
	kcpListener, err := kcp.ListenWithOptions(listenAddr, nil, consts.KCP_DATA_SHARDS, consts.KCP_PARITY_SHARDS)
	if err != nil {
		return errors.Wrapf(err, "listen kcp %s failed", listenAddr)
	}
	defer kcpListener.Close()

	gwlog.Infof("Listening on KCP: %s ...", listenAddr)
	for {
		conn, err := kcpListener.AcceptKCP()
		if err != nil {
			return err
		}
		gwlog.Infof("KCP connection from %s", conn.RemoteAddr())
		setupKCPSession(conn)
		go delegate.ServeTCPConnection(conn)
	}
}

// ConnectKCP connects to addr in KCP
func ConnectKCP(addr string) (net.Conn, error) {
	conn, err := kcp.DialWithOptions(addr, nil, consts.KCP_DATA_SHARDS, consts.KCP_PARITY_SHARDS)
	if err != nil {
		return nil, errors.Wrapf(err, "connect kcp %s failed", addr)
	}
	setupKCPSession(conn)
	return conn, nil
}

func setupKCPSession(conn *kcp.UDPSession) {
	conn.SetReadBuffer(consts.CONNECTION_READ_BUFFER_SIZE)
	conn.SetWriteBuffer(consts.CONNECTION_WRITE_BUFFER_SIZE)
	// turbo mode, see https://github.com/skywind3000/kcp/blob/master/README.en.md#protocol-configuration
	conn.SetStreamMode(true)
	conn.SetWriteDelay(true)
	conn.SetNoDelay(1, 10, 2, 1)
}
