package dispatch

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/proto"
)

// MemPort is an in-process Port which records sent messages
//
// Deliver feeds inbound messages to the registered handlers, as if they were received from the network.
type MemPort struct {
	*Dispatcher

	lock sync.Mutex
	sent []proto.Message
}

// NewMemPort creates an empty MemPort
func NewMemPort() *MemPort {
	return &MemPort{
		Dispatcher: NewDispatcher(),
	}
}

// Send records the message
func (mp *MemPort) Send(m proto.Message) error {
	mp.lock.Lock()
	mp.sent = append(mp.sent, m)
	mp.lock.Unlock()
	return nil
}

// Sent returns and clears the recorded messages
func (mp *MemPort) Sent() []proto.Message {
	mp.lock.Lock()
	sent := mp.sent
	mp.sent = nil
	mp.lock.Unlock()
	return sent
}

// Deliver dispatches the message as received from peer
func (mp *MemPort) Deliver(m proto.Message, from Peer) bool {
	return mp.Dispatch(m, from)
}
