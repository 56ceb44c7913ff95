package dispatch

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/proto"
)

// Hub is the server side Port: one dispatcher shared by every connected peer
//
// Send broadcasts to every peer; handlers reply to a single peer through the from argument.
type Hub struct {
	*Dispatcher

	lock  sync.RWMutex
	peers map[Peer]struct{}
}

// NewHub creates a Hub with no peers
func NewHub() *Hub {
	return &Hub{
		Dispatcher: NewDispatcher(),
		peers:      map[Peer]struct{}{},
	}
}

// AddPeer adds the peer to broadcasts
func (h *Hub) AddPeer(p Peer) {
	h.lock.Lock()
	h.peers[p] = struct{}{}
	h.lock.Unlock()
}

// RemovePeer removes the peer from broadcasts
func (h *Hub) RemovePeer(p Peer) {
	h.lock.Lock()
	delete(h.peers, p)
	h.lock.Unlock()
}

// Len returns the number of peers
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.peers)
}

// Send broadcasts the message to every peer
func (h *Hub) Send(m proto.Message) error {
	return h.SendExcept(m, nil)
}

// SendExcept broadcasts the message to every peer other than except
//
// Failing peers are logged and skipped; the first non-connection error is returned.
func (h *Hub) SendExcept(m proto.Message, except Peer) error {
	h.lock.RLock()
	peers := make([]Peer, 0, len(h.peers))
	for p := range h.peers {
		if p != except {
			peers = append(peers, p)
		}
	}
	h.lock.RUnlock()

	var firstErr error
	for _, p := range peers {
		if err := p.Send(m); err != nil {
			if !netutil.IsConnectionError(err) && firstErr == nil {
				firstErr = err
			}
			gwlog.Warnf("send %s to %v failed: %v", proto.MsgTypeName(m.Type()), p, err)
		}
	}
	return firstErr
}
