// Package netloader turns request calls into outbound messages and paired inbound messages into loader events
package netloader

import (
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/proto"
)

type handlerEntry struct {
	mt proto.MsgType
	h  dispatch.Handler
}

// registerAll registers every handler, or none of them if one fails
func registerAll(port dispatch.Port, entries []handlerEntry) error {
	for i, entry := range entries {
		if err := port.RegisterMessageCallback(entry.mt, entry.h); err != nil {
			for _, registered := range entries[:i] {
				port.UnregisterMessageCallback(registered.mt)
			}
			return err
		}
	}
	return nil
}

func unregisterAll(port dispatch.Port, entries []handlerEntry) {
	for _, entry := range entries {
		port.UnregisterMessageCallback(entry.mt)
	}
}

func send(port dispatch.Port, m proto.Message) {
	if err := port.Send(m); err != nil {
		gwlog.Errorf("netloader: send %s failed: %v", proto.MsgTypeName(m.Type()), err)
	}
}
