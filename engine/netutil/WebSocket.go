package netutil

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/websocket"
)

// WebSocketPath is where servers accept websocket connections
const WebSocketPath = "/ws"

// ConnectWebSocket connects to the websocket of the http server at addr
func ConnectWebSocket(addr string) (net.Conn, error) {
	conn, err := websocket.Dial("ws://"+addr+WebSocketPath, "", "http://"+addr+"/")
	if err != nil {
		return nil, errors.Wrapf(err, "connect websocket %s failed", addr)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}
