// Package loader defines the loader contracts shared by network loaders, storage, generators and provider chains
//
// Loading is asynchronous: LoadX calls never block, results arrive through events.
package loader

import (
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/event"
	"github.com/xiaonanln/worldsync/engine/world"
)

// ChunkEvent carries chunks which were loaded or generated
type ChunkEvent struct {
	Chunks []*world.Chunk
}

// Keys returns the keys of the chunks
func (ev ChunkEvent) Keys() []common.ChunkKey {
	keys := make([]common.ChunkKey, len(ev.Chunks))
	for i, c := range ev.Chunks {
		keys[i] = c.Key
	}
	return keys
}

// KeysEvent carries chunk keys, e.g. keys that are unavailable
type KeysEvent struct {
	Keys []common.ChunkKey
}

// EntityEvent carries entities, with the area they were loaded for if known
type EntityEvent struct {
	Area     common.ChunkKey
	Entities []*world.Entity
}

// Areas returns the area of the event as a one-key list
func (ev EntityEvent) Areas() []common.ChunkKey {
	return []common.ChunkKey{ev.Area}
}

// EntityIDsEvent carries ids of entities
type EntityIDsEvent struct {
	IDs []common.EntityID
}

// AreasEvent carries areas, e.g. areas whose entities or triggers are unavailable
type AreasEvent struct {
	Areas []common.ChunkKey
}

// TriggerEvent carries triggers loaded for one area
type TriggerEvent struct {
	Area     common.ChunkKey
	Triggers []*world.Trigger
}

// TriggerKeysEvent carries keys of triggers
type TriggerKeysEvent struct {
	Keys []common.TriggerKey
}

// ChunkEvents is the event surface of chunk loaders
type ChunkEvents struct {
	Loaded      event.Event[ChunkEvent]
	Generated   event.Event[ChunkEvent]
	Unavailable event.Event[KeysEvent]
}

// Events returns the event surface
func (evs *ChunkEvents) Events() *ChunkEvents {
	return evs
}

// EntityEvents is the event surface of entity loaders
type EntityEvents struct {
	Loaded      event.Event[EntityEvent]
	Updated     event.Event[EntityEvent]
	Deleted     event.Event[EntityIDsEvent]
	Unavailable event.Event[AreasEvent]
}

// Events returns the event surface
func (evs *EntityEvents) Events() *EntityEvents {
	return evs
}

// TriggerEvents is the event surface of trigger loaders
type TriggerEvents struct {
	Loaded      event.Event[TriggerEvent]
	Deleted     event.Event[TriggerKeysEvent]
	Unavailable event.Event[AreasEvent]
}

// Events returns the event surface
func (evs *TriggerEvents) Events() *TriggerEvents {
	return evs
}

// ChunkLoader loads chunks by keys
type ChunkLoader interface {
	LoadChunks(keys []common.ChunkKey)
	Events() *ChunkEvents
	Dispose()
}

// EntityLoader loads entities by areas
type EntityLoader interface {
	LoadEntities(area common.ChunkKey)
	LoadEntitiesIn(areas []common.ChunkKey)
	Events() *EntityEvents
	Dispose()
}

// TriggerLoader loads triggers by areas
type TriggerLoader interface {
	LoadTriggers(areas []common.ChunkKey)
	Events() *TriggerEvents
	Dispose()
}

// ChunkSaver saves chunks
type ChunkSaver interface {
	SaveChunks(chunks []*world.Chunk)
}

// EntitySaver saves the entities of an area
type EntitySaver interface {
	SaveEntities(area common.ChunkKey, entities []*world.Entity)
}

// LoadEach implements LoadEntitiesIn by repeating LoadEntities, one request per area
func LoadEach(l interface{ LoadEntities(common.ChunkKey) }, areas []common.ChunkKey) {
	for _, area := range areas {
		l.LoadEntities(area)
	}
}
