package world

import (
	"sync"

	"github.com/xiaonanln/worldsync/engine/common"
)

// EntityMap is the data structure for maintaining entity IDs to entities
type EntityMap map[common.EntityID]*Entity

// Add adds a new entity to EntityMap
func (em EntityMap) Add(entity *Entity) {
	em[entity.ID] = entity
}

// Del deletes an entity from EntityMap
func (em EntityMap) Del(id common.EntityID) {
	delete(em, id)
}

// Get returns the Entity of specified entity ID in EntityMap
func (em EntityMap) Get(id common.EntityID) *Entity {
	return em[id]
}

// EntityTable is the live entity table of a process, shared by the engine thread and network handlers
type EntityTable struct {
	lock        sync.RWMutex
	entities    EntityMap
	localPlayer common.EntityID
}

// NewEntityTable creates an empty entity table
func NewEntityTable() *EntityTable {
	return &EntityTable{
		entities: EntityMap{},
	}
}

// Put adds or replaces the entity
func (t *EntityTable) Put(e *Entity) {
	t.lock.Lock()
	t.entities.Add(e)
	t.lock.Unlock()
}

// Get returns the entity, or nil if it is not in the table
func (t *EntityTable) Get(id common.EntityID) *Entity {
	t.lock.RLock()
	e := t.entities.Get(id)
	t.lock.RUnlock()
	return e
}

// Del removes the entity and returns it
func (t *EntityTable) Del(id common.EntityID) *Entity {
	t.lock.Lock()
	e := t.entities.Get(id)
	t.entities.Del(id)
	t.lock.Unlock()
	return e
}

// Len returns the number of entities
func (t *EntityTable) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.entities)
}

// SetLocalPlayer sets the id of the locally controlled entity
func (t *EntityTable) SetLocalPlayer(id common.EntityID) {
	t.lock.Lock()
	t.localPlayer = id
	t.lock.Unlock()
}

// LocalPlayer returns the id of the locally controlled entity, or NilEntityID
func (t *EntityTable) LocalPlayer() common.EntityID {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.localPlayer
}

// IsLocalPlayer returns if id is the locally controlled entity
func (t *EntityTable) IsLocalPlayer(id common.EntityID) bool {
	local := t.LocalPlayer()
	return !local.IsNil() && local == id
}

// Each calls f for a snapshot of all entities
func (t *EntityTable) Each(f func(e *Entity)) {
	t.lock.RLock()
	snapshot := make([]*Entity, 0, len(t.entities))
	for _, e := range t.entities {
		snapshot = append(snapshot, e)
	}
	t.lock.RUnlock()

	for _, e := range snapshot {
		f(e)
	}
}
