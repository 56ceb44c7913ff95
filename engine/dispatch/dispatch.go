// Package dispatch routes decoded messages to handlers registered by message type
package dispatch

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/gwutils"
	"github.com/xiaonanln/worldsync/engine/opmon"
	"github.com/xiaonanln/worldsync/engine/proto"
)

// ErrHandlerExists is returned when registering a second handler for one message type
var ErrHandlerExists = errors.New("message handler already registered")

const _HANDLER_WARN_THRESHOLD = 10 * time.Millisecond

// Peer is the sender of a message, which can be replied to
type Peer interface {
	Send(m proto.Message) error
}

// Handler handles one inbound message
type Handler func(m proto.Message, from Peer)

// Port is what loaders and caches need from the network: handler registration and a send primitive
type Port interface {
	RegisterMessageCallback(mt proto.MsgType, h Handler) error
	UnregisterMessageCallback(mt proto.MsgType)
	Send(m proto.Message) error
}

// Dispatcher keeps at most one handler per message type
type Dispatcher struct {
	// DropExpired drops unreliable messages which have expired before they are dispatched
	DropExpired bool
	// Decompose dispatches the sub-messages of a message instead of the message itself
	Decompose bool

	lock     sync.RWMutex
	handlers map[proto.MsgType]Handler
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher with no handlers
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: map[proto.MsgType]Handler{},
		now:      time.Now,
	}
}

// RegisterMessageCallback sets the handler of the message type
func (d *Dispatcher) RegisterMessageCallback(mt proto.MsgType, h Handler) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.handlers[mt]; ok {
		return errors.Wrap(ErrHandlerExists, proto.MsgTypeName(mt))
	}
	d.handlers[mt] = h
	return nil
}

// UnregisterMessageCallback removes the handler of the message type
func (d *Dispatcher) UnregisterMessageCallback(mt proto.MsgType) {
	d.lock.Lock()
	delete(d.handlers, mt)
	d.lock.Unlock()
}

// HasHandler returns if the message type has a handler
func (d *Dispatcher) HasHandler(mt proto.MsgType) bool {
	d.lock.RLock()
	_, ok := d.handlers[mt]
	d.lock.RUnlock()
	return ok
}

// Dispatch calls the handler of the message, returns false if it was dropped or not handled
func (d *Dispatcher) Dispatch(m proto.Message, from Peer) bool {
	if d.Decompose {
		if subs := m.SubMessages(); len(subs) > 0 {
			handled := true
			for _, sub := range subs {
				handled = d.Dispatch(sub, from) && handled
			}
			return handled
		}
	}

	mt := m.Type()
	if d.DropExpired && !m.Header().Delivery.IsReliable() && m.Header().HasExpired(d.now()) {
		if consts.DEBUG_PACKETS {
			gwlog.Debugf("dropping expired %s#%d", proto.MsgTypeName(mt), m.Header().ID)
		}
		return false
	}

	d.lock.RLock()
	h := d.handlers[mt]
	d.lock.RUnlock()
	if h == nil {
		gwlog.Warnf("no handler for %s from %v", proto.MsgTypeName(mt), from)
		return false
	}

	op := opmon.StartOperation("dispatch." + proto.MsgTypeName(mt))
	paniced := gwutils.RunPanicless(func() {
		h(m, from)
	})
	op.Finish(_HANDLER_WARN_THRESHOLD)
	return !paniced
}
