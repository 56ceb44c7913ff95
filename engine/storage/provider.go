package storage

import (
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/world"
)

// retryLoadInterval is the wait before loading again what storage failed to read
var retryLoadInterval = consts.STORAGE_RETRY_INTERVAL

// ChunkProvider loads and saves chunks through Storage
//
// Chunks never saved are reported Unavailable, so a provider chain can fall back to generation.
// Chunks which failed to load are loaded again later instead.
type ChunkProvider struct {
	loader.ChunkEvents

	storage  *Storage
	disposed xnsyncutil.AtomicBool
}

// NewChunkProvider creates a ChunkProvider over storage
func NewChunkProvider(storage *Storage) *ChunkProvider {
	return &ChunkProvider{storage: storage}
}

// LoadChunks loads the chunks from storage
func (cp *ChunkProvider) LoadChunks(keys []common.ChunkKey) {
	if len(keys) == 0 {
		return
	}
	cp.storage.LoadChunks(keys, func(found []*world.Chunk, missing []common.ChunkKey, err error) {
		if cp.disposed.Load() {
			return
		}
		if consts.DEBUG_LOADERS {
			gwlog.Debugf("storage: chunks found %d, missing %v, error %v", len(found), missing, err)
		}
		if len(found) > 0 {
			cp.Loaded.Fire(loader.ChunkEvent{Chunks: found})
		}
		if len(missing) > 0 {
			cp.Unavailable.Fire(loader.KeysEvent{Keys: missing})
		}
		if err != nil {
			if failed := failedKeys(keys, found, missing); len(failed) > 0 {
				gwlog.Warnf("storage: loading chunks %v again in %s", failed, retryLoadInterval)
				time.AfterFunc(retryLoadInterval, func() {
					if !cp.disposed.Load() {
						cp.LoadChunks(failed)
					}
				})
			}
		}
	})
}

// failedKeys returns the keys in neither found nor missing
func failedKeys(keys []common.ChunkKey, found []*world.Chunk, missing []common.ChunkKey) []common.ChunkKey {
	done := common.NewChunkKeySet(missing...)
	for _, c := range found {
		done.Add(c.Key)
	}
	var failed []common.ChunkKey
	for _, k := range keys {
		if !done.Contains(k) {
			failed = append(failed, k)
		}
	}
	return failed
}

// SaveChunks saves the chunks to storage
func (cp *ChunkProvider) SaveChunks(chunks []*world.Chunk) {
	if len(chunks) == 0 {
		return
	}
	cp.storage.SaveChunks(chunks, nil)
}

// Dispose stops firing events for loads still in flight
func (cp *ChunkProvider) Dispose() {
	cp.disposed.Store(true)
}

// EntityProvider loads and saves the entities of areas through Storage
//
// Areas with nothing saved are reported Unavailable, areas which failed to load are loaded again later.
type EntityProvider struct {
	loader.EntityEvents

	storage  *Storage
	disposed xnsyncutil.AtomicBool
}

// NewEntityProvider creates an EntityProvider over storage
func NewEntityProvider(storage *Storage) *EntityProvider {
	return &EntityProvider{storage: storage}
}

// LoadEntities loads the entities saved for area
func (ep *EntityProvider) LoadEntities(area common.ChunkKey) {
	ep.storage.LoadEntities(area, func(records []world.EntityRecord, found bool, err error) {
		if ep.disposed.Load() {
			return
		}
		if err != nil {
			// the area stays unloaded until a read succeeds
			gwlog.Warnf("storage: loading entities of %s again in %s", area, retryLoadInterval)
			time.AfterFunc(retryLoadInterval, func() {
				if !ep.disposed.Load() {
					ep.LoadEntities(area)
				}
			})
			return
		}
		if !found {
			ep.Unavailable.Fire(loader.AreasEvent{Areas: []common.ChunkKey{area}})
			return
		}
		entities := make([]*world.Entity, len(records))
		for i, rec := range records {
			entities[i] = world.FromRecord(rec)
		}
		ep.Loaded.Fire(loader.EntityEvent{Area: area, Entities: entities})
	})
}

// LoadEntitiesIn loads the entities of every area
func (ep *EntityProvider) LoadEntitiesIn(areas []common.ChunkKey) {
	loader.LoadEach(ep, areas)
}

// SaveEntities replaces the entities saved for area
func (ep *EntityProvider) SaveEntities(area common.ChunkKey, entities []*world.Entity) {
	records := make([]world.EntityRecord, len(entities))
	for i, e := range entities {
		records[i] = e.Record()
	}
	ep.storage.SaveEntities(area, records, nil)
}

// Dispose stops firing events for loads still in flight
func (ep *EntityProvider) Dispose() {
	ep.disposed.Store(true)
}
