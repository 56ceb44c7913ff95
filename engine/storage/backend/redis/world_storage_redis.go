package worldstorageredis

import (
	"io"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
	. "github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
)

var (
	dataPacker = netutil.MessagePackMsgPacker{}
)

type redisWorldStorage struct {
	c redis.Conn
}

// OpenRedis opens redis as world storage, records are packed in MessagePack
func OpenRedis(host string, dbindex int) (WorldStorage, error) {
	c, err := redis.Dial("tcp", host)
	if err != nil {
		return nil, errors.Wrap(err, "redis dail failed")
	}

	if _, err := c.Do("SELECT", dbindex); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "redis select db failed")
	}

	return &redisWorldStorage{
		c: c,
	}, nil
}

func chunkKey(key common.ChunkKey) string {
	return "chunk$" + KeyString(key)
}

func entitiesKey(area common.ChunkKey) string {
	return "entities$" + KeyString(area)
}

func (ws *redisWorldStorage) set(key string, data interface{}) error {
	b, err := dataPacker.PackMsg(data, nil)
	if err != nil {
		return err
	}
	_, err = ws.c.Do("SET", key, b)
	return err
}

// get returns false if the key does not exist
func (ws *redisWorldStorage) get(key string, data interface{}) (bool, error) {
	b, err := redis.Bytes(ws.c.Do("GET", key))
	if err == redis.ErrNil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err = dataPacker.UnpackMsg(b, data); err != nil {
		return false, err
	}
	return true, nil
}

func (ws *redisWorldStorage) ReadChunk(key common.ChunkKey) (*world.Chunk, error) {
	var chunk world.Chunk
	found, err := ws.get(chunkKey(key), &chunk)
	if !found || err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (ws *redisWorldStorage) WriteChunk(chunk *world.Chunk) error {
	return ws.set(chunkKey(chunk.Key), chunk)
}

func (ws *redisWorldStorage) ReadEntities(area common.ChunkKey) ([]world.EntityRecord, bool, error) {
	var records []world.EntityRecord
	found, err := ws.get(entitiesKey(area), &records)
	return records, found, err
}

func (ws *redisWorldStorage) WriteEntities(area common.ChunkKey, records []world.EntityRecord) error {
	if records == nil {
		records = []world.EntityRecord{}
	}
	return ws.set(entitiesKey(area), records)
}

func (ws *redisWorldStorage) Close() {
	ws.c.Close()
}

func (ws *redisWorldStorage) IsEOF(err error) bool {
	err = errors.Cause(err)
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
