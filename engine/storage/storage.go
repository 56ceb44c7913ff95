// Package storage saves and loads world state (chunks and the entities of areas) through a storage backend
//
// All backend operations run on one storage routine. Callbacks are posted to the owner's post.Queue.
package storage

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/config"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/opmon"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/storage/backend/filesystem"
	"github.com/xiaonanln/worldsync/engine/storage/backend/mongodb"
	"github.com/xiaonanln/worldsync/engine/storage/backend/redis"
	"github.com/xiaonanln/worldsync/engine/storage/backend/redis_cluster"
	"github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
)

// Storage is the storage service over one backend
type Storage struct {
	open                 func() (storagecommon.WorldStorage, error)
	engine               storagecommon.WorldStorage
	queue                *post.Queue
	operationQueue       *xnsyncutil.SyncQueue
	routineTerminated    *xnsyncutil.OneTimeCond
	recentWarnedQueueLen int
}

type loadChunksRequest struct {
	Keys     []common.ChunkKey
	Callback LoadChunksCallbackFunc
}

type saveChunksRequest struct {
	Chunks   []*world.Chunk
	Callback SaveCallbackFunc
}

type loadEntitiesRequest struct {
	Area     common.ChunkKey
	Callback LoadEntitiesCallbackFunc
}

type saveEntitiesRequest struct {
	Area     common.ChunkKey
	Records  []world.EntityRecord
	Callback SaveCallbackFunc
}

type syncRequest struct {
	Callback SaveCallbackFunc
}

// SaveCallbackFunc is the callback type of storage saves
type SaveCallbackFunc func()

// LoadChunksCallbackFunc is the callback type of LoadChunks
//
// Keys which failed to load are in neither found nor missing, err is the last failure.
type LoadChunksCallbackFunc func(found []*world.Chunk, missing []common.ChunkKey, err error)

// LoadEntitiesCallbackFunc is the callback type of LoadEntities
type LoadEntitiesCallbackFunc func(records []world.EntityRecord, found bool, err error)

// OpenBackend opens the storage backend configured by cfg
func OpenBackend(cfg *config.StorageConfig) (storagecommon.WorldStorage, error) {
	switch cfg.Type {
	case "filesystem":
		return worldstoragefilesystem.OpenDirectory(cfg.Directory)
	case "redis":
		dbindex, err := strconv.Atoi(cfg.DB)
		if err != nil {
			return nil, errors.Wrapf(err, "bad redis db index %q", cfg.DB)
		}
		return worldstorageredis.OpenRedis(cfg.Url, dbindex)
	case "redis_cluster":
		return worldstoragerediscluster.OpenRedisCluster(cfg.StartNodes.ToList())
	case "mongodb":
		return worldstoragemongodb.OpenMongoDB(cfg.Url, cfg.DB)
	default:
		return nil, errors.Errorf("unknown storage type: %q", cfg.Type)
	}
}

// NewStorage creates the storage service and starts its routine
//
// open is called to connect the backend, and again after the backend fails with EOF.
func NewStorage(open func() (storagecommon.WorldStorage, error), queue *post.Queue) (*Storage, error) {
	s := &Storage{
		open:              open,
		queue:             queue,
		operationQueue:    xnsyncutil.NewSyncQueue(),
		routineTerminated: xnsyncutil.NewOneTimeCond(),
	}
	if err := s.assureEngineReady(); err != nil {
		return nil, errors.Wrap(err, "storage engine is not ready")
	}
	go s.storageRoutine()
	return s, nil
}

// LoadChunks loads chunks of keys
func (s *Storage) LoadChunks(keys []common.ChunkKey, callback LoadChunksCallbackFunc) {
	s.push(loadChunksRequest{Keys: keys, Callback: callback})
}

// SaveChunks saves chunks, callback can be nil
func (s *Storage) SaveChunks(chunks []*world.Chunk, callback SaveCallbackFunc) {
	s.push(saveChunksRequest{Chunks: chunks, Callback: callback})
}

// LoadEntities loads the entity records saved for area
func (s *Storage) LoadEntities(area common.ChunkKey, callback LoadEntitiesCallbackFunc) {
	s.push(loadEntitiesRequest{Area: area, Callback: callback})
}

// SaveEntities replaces the entity records saved for area, callback can be nil
func (s *Storage) SaveEntities(area common.ChunkKey, records []world.EntityRecord, callback SaveCallbackFunc) {
	s.push(saveEntitiesRequest{Area: area, Records: records, Callback: callback})
}

// Sync calls callback after every operation issued before it is done
func (s *Storage) Sync(callback SaveCallbackFunc) {
	s.push(syncRequest{Callback: callback})
}

// QueueLen returns the number of operations waiting
func (s *Storage) QueueLen() int {
	return s.operationQueue.Len()
}

// Shutdown stops the storage routine and closes the backend
func (s *Storage) Shutdown() {
	s.operationQueue.Close()
	s.routineTerminated.Wait()
}

func (s *Storage) push(op interface{}) {
	s.operationQueue.Push(op)
	s.checkOperationQueueLen()
}

func (s *Storage) checkOperationQueueLen() {
	qlen := s.operationQueue.Len()
	if qlen > consts.STORAGE_QUEUE_WARN_LEN && qlen%consts.STORAGE_QUEUE_WARN_LEN == 0 && s.recentWarnedQueueLen != qlen {
		gwlog.Warnf("Storage operation queue length = %d", qlen)
		s.recentWarnedQueueLen = qlen
	}
}

func (s *Storage) assureEngineReady() (err error) {
	if s.engine != nil {
		return
	}
	s.engine, err = s.open()
	return
}

// checkEOF drops the backend if err is a connection failure, so it is reopened by the next operation
func (s *Storage) checkEOF(err error) {
	if err != nil && s.engine != nil && s.engine.IsEOF(err) {
		s.engine.Close()
		s.engine = nil
	}
}

func (s *Storage) waitEngineReady() {
	for {
		err := s.assureEngineReady()
		if err == nil {
			return
		}
		gwlog.Errorf("Storage engine is not ready: %s", err)
		time.Sleep(consts.STORAGE_RETRY_INTERVAL)
	}
}

func (s *Storage) storageRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("storage routine paniced: %s, restarting ...", err)
			go s.storageRoutine() // restart the storage routine
		} else {
			// normal quit
			if s.engine != nil {
				s.engine.Close()
			}
			s.routineTerminated.Signal()
		}
	}()

	for {
		op := s.operationQueue.Pop()
		if op == nil { // storage closed
			break
		}

		s.waitEngineReady()
		switch req := op.(type) {
		case loadChunksRequest:
			s.handleLoadChunks(req)
		case saveChunksRequest:
			s.handleSaveChunks(req)
		case loadEntitiesRequest:
			s.handleLoadEntities(req)
		case saveEntitiesRequest:
			s.handleSaveEntities(req)
		case syncRequest:
			s.queue.Post(post.PostCallback(req.Callback))
		default:
			gwlog.Panicf("storage: unknown operation: %v", op)
		}
	}
}

func (s *Storage) handleLoadChunks(req loadChunksRequest) {
	monop := opmon.StartOperation("storage.loadChunks")
	var found []*world.Chunk
	var missing []common.ChunkKey
	var lastErr error
	for _, key := range req.Keys {
		if s.engine == nil {
			s.waitEngineReady()
		}
		if consts.DEBUG_SAVE_LOAD {
			gwlog.Debugf("storage: LOADING chunk %s ...", key)
		}
		chunk, err := s.engine.ReadChunk(key)
		if err != nil {
			gwlog.Errorf("storage: load chunk %s failed: %s", key, err)
			lastErr = err
			s.checkEOF(err)
			continue
		}
		if chunk != nil {
			found = append(found, chunk)
		} else {
			missing = append(missing, key)
		}
	}
	monop.Finish(time.Millisecond * 100)

	if req.Callback != nil {
		s.queue.Post(func() {
			req.Callback(found, missing, lastErr)
		})
	}
}

// retrySave runs write until it succeeds
func (s *Storage) retrySave(what string, write func() error) {
	for {
		s.waitEngineReady()
		err := write()
		if err == nil {
			return
		}
		gwlog.Errorf("storage: save %s failed: %s", what, err)
		s.checkEOF(err)
		time.Sleep(consts.STORAGE_RETRY_INTERVAL)
	}
}

func (s *Storage) handleSaveChunks(req saveChunksRequest) {
	monop := opmon.StartOperation("storage.saveChunks")
	for _, chunk := range req.Chunks {
		if consts.DEBUG_SAVE_LOAD {
			gwlog.Debugf("storage: SAVING chunk %s ...", chunk.Key)
		}
		chunk := chunk
		s.retrySave("chunk "+chunk.Key.String(), func() error {
			return s.engine.WriteChunk(chunk)
		})
	}
	monop.Finish(time.Millisecond * 100)

	if req.Callback != nil {
		s.queue.Post(post.PostCallback(req.Callback))
	}
}

func (s *Storage) handleLoadEntities(req loadEntitiesRequest) {
	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("storage: LOADING entities of %s ...", req.Area)
	}
	monop := opmon.StartOperation("storage.loadEntities")
	records, found, err := s.engine.ReadEntities(req.Area)
	if err != nil {
		gwlog.TraceError("storage: load entities of %s failed: %s", req.Area, err)
		records, found = nil, false
	}
	monop.Finish(time.Millisecond * 100)

	if req.Callback != nil {
		s.queue.Post(func() {
			req.Callback(records, found, err)
		})
	}
	s.checkEOF(err)
}

func (s *Storage) handleSaveEntities(req saveEntitiesRequest) {
	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("storage: SAVING %d entities of %s ...", len(req.Records), req.Area)
	}
	monop := opmon.StartOperation("storage.saveEntities")
	s.retrySave("entities of "+req.Area.String(), func() error {
		return s.engine.WriteEntities(req.Area, req.Records)
	})
	monop.Finish(time.Millisecond * 100)

	if req.Callback != nil {
		s.queue.Post(post.PostCallback(req.Callback))
	}
}
