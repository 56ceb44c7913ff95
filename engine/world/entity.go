package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

// ErrEntityNotFound is raised when a message refers to an entity that was never loaded
var ErrEntityNotFound = errors.New("entity not found")

// Entity is a dynamic object in the world
//
// Entities are created once per id and mutated in place by property updates.
type Entity struct {
	ID common.EntityID

	lock  sync.RWMutex
	props map[common.PropertyID]PropertyValue
	dirty map[common.PropertyID]struct{}
}

// NewEntity creates an entity with no properties
func NewEntity(id common.EntityID) *Entity {
	return &Entity{
		ID:    id,
		props: map[common.PropertyID]PropertyValue{},
		dirty: map[common.PropertyID]struct{}{},
	}
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity<%d>", e.ID)
}

// Get returns the property value and if it is set
func (e *Entity) Get(id common.PropertyID) (PropertyValue, bool) {
	e.lock.RLock()
	v, ok := e.props[id]
	e.lock.RUnlock()
	return v, ok
}

// Set sets the property value and marks it dirty
func (e *Entity) Set(id common.PropertyID, v PropertyValue) {
	e.lock.Lock()
	e.props[id] = v
	e.dirty[id] = struct{}{}
	e.lock.Unlock()
}

// Apply sets all properties in order
func (e *Entity) Apply(props []Property) {
	for _, prop := range props {
		e.Set(prop.ID, prop.Value)
	}
}

// Properties returns all properties sorted by id
func (e *Entity) Properties() []Property {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.collect(func(common.PropertyID) bool { return true })
}

// DirtyProperties returns the properties changed since the last ClearDirty
func (e *Entity) DirtyProperties() []Property {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.collect(func(id common.PropertyID) bool {
		_, ok := e.dirty[id]
		return ok
	})
}

// IsDirty returns if the property is dirty
func (e *Entity) IsDirty(id common.PropertyID) bool {
	e.lock.RLock()
	_, ok := e.dirty[id]
	e.lock.RUnlock()
	return ok
}

// ClearDirty clears all dirty flags
func (e *Entity) ClearDirty() {
	e.lock.Lock()
	e.dirty = map[common.PropertyID]struct{}{}
	e.lock.Unlock()
}

func (e *Entity) collect(filter func(common.PropertyID) bool) []Property {
	props := make([]Property, 0, len(e.props))
	for id, v := range e.props {
		if filter(id) {
			props = append(props, Property{id, v})
		}
	}
	sort.Slice(props, func(i, j int) bool {
		return props[i].ID < props[j].ID
	})
	return props
}

// Position returns the entity position
func (e *Entity) Position() Vector3 {
	v, _ := e.Get(PROP_POSITION)
	return v.Vec
}

// SetPosition sets the entity position
func (e *Entity) SetPosition(pos Vector3) {
	e.Set(PROP_POSITION, VectorValue(pos))
}

// Rotation returns the entity rotation
func (e *Entity) Rotation() Vector3 {
	v, _ := e.Get(PROP_ROTATION)
	return v.Vec
}

// SetRotation sets the entity rotation
func (e *Entity) SetRotation(rot Vector3) {
	e.Set(PROP_ROTATION, VectorValue(rot))
}

// Movement returns the entity movement vector
func (e *Entity) Movement() Vector3 {
	v, _ := e.Get(PROP_MOVEMENT)
	return v.Vec
}

// SetMovement sets the entity movement vector
func (e *Entity) SetMovement(mv Vector3) {
	e.Set(PROP_MOVEMENT, VectorValue(mv))
}

// EntityRecord is the saved form of an entity
type EntityRecord struct {
	ID    common.EntityID
	Props []Property
}

// Record returns the saved form of the entity
func (e *Entity) Record() EntityRecord {
	return EntityRecord{ID: e.ID, Props: e.Properties()}
}

// FromRecord restores an entity from its saved form
func FromRecord(rec EntityRecord) *Entity {
	e := NewEntity(rec.ID)
	e.Apply(rec.Props)
	e.ClearDirty()
	return e
}

// AppendEntity appends the entity with all its properties
func AppendEntity(p *netutil.Packet, e *Entity) {
	p.AppendEntityID(e.ID)
	AppendProperties(p, e.Properties())
}

// ReadEntity reads an entity written by AppendEntity
func ReadEntity(p *netutil.Packet) *Entity {
	e := NewEntity(p.ReadEntityID())
	e.Apply(ReadProperties(p))
	e.ClearDirty()
	return e
}
