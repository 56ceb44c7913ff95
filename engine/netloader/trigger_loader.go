package netloader

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/proto"
)

// TriggerLoader requests triggers of areas from the server
type TriggerLoader struct {
	loader.TriggerEvents

	port        dispatch.Port
	handlers    []handlerEntry
	disposeOnce sync.Once
}

// NewTriggerLoader creates a TriggerLoader handling trigger messages received by port
func NewTriggerLoader(port dispatch.Port) (*TriggerLoader, error) {
	tl := &TriggerLoader{port: port}
	tl.handlers = []handlerEntry{
		{proto.MT_TRIGGERS_CREATED, tl.onTriggersCreated},
		{proto.MT_TRIGGERS_DELETED, tl.onTriggersDeleted},
	}
	if err := registerAll(port, tl.handlers); err != nil {
		return nil, err
	}
	return tl, nil
}

// LoadTriggers sends one request for all areas
func (tl *TriggerLoader) LoadTriggers(areas []common.ChunkKey) {
	if len(areas) == 0 {
		return
	}
	send(tl.port, &proto.TriggersRequested{Areas: areas})
}

func (tl *TriggerLoader) onTriggersCreated(m proto.Message, _ dispatch.Peer) {
	msg := m.(*proto.TriggersCreated)
	tl.Loaded.Fire(loader.TriggerEvent{Area: msg.Area, Triggers: msg.Triggers})
}

func (tl *TriggerLoader) onTriggersDeleted(m proto.Message, _ dispatch.Peer) {
	tl.Deleted.Fire(loader.TriggerKeysEvent{Keys: m.(*proto.TriggersDeleted).Keys})
}

// Dispose unregisters the trigger handlers
func (tl *TriggerLoader) Dispose() {
	tl.disposeOnce.Do(func() {
		unregisterAll(tl.port, tl.handlers)
	})
}
