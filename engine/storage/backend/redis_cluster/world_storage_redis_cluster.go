package worldstoragerediscluster

import (
	"io"
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
)

var (
	dataPacker = netutil.MessagePackMsgPacker{}
)

type redisClusterWorldStorage struct {
	c rediscluster.Cluster
}

// OpenRedisCluster opens redis cluster as world storage
func OpenRedisCluster(startNodes []string) (storagecommon.WorldStorage, error) {
	c, err := rediscluster.NewCluster(&rediscluster.Options{
		StartNodes:   startNodes,
		ConnTimeout:  10 * time.Second, // Connection timeout
		ReadTimeout:  60 * time.Second, // Read timeout
		WriteTimeout: 60 * time.Second, // Write timeout
		KeepAlive:    1,                // Maximum keep alive connecion in each node
		AliveTime:    10 * time.Minute, // Keep alive timeout
	})

	if err != nil {
		return nil, errors.Wrap(err, "connect redis cluster failed")
	}

	return &redisClusterWorldStorage{
		c: c,
	}, nil
}

func (ws *redisClusterWorldStorage) set(key string, data interface{}) error {
	b, err := dataPacker.PackMsg(data, nil)
	if err != nil {
		return err
	}
	_, err = ws.c.Do("SET", key, b)
	return err
}

func (ws *redisClusterWorldStorage) get(key string, data interface{}) (bool, error) {
	b, err := rediscluster.Bytes(ws.c.Do("GET", key))
	if err == rediscluster.ErrNil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err = dataPacker.UnpackMsg(b, data); err != nil {
		return false, err
	}
	return true, nil
}

func (ws *redisClusterWorldStorage) ReadChunk(key common.ChunkKey) (*world.Chunk, error) {
	var chunk world.Chunk
	found, err := ws.get("chunk$"+storagecommon.KeyString(key), &chunk)
	if !found || err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (ws *redisClusterWorldStorage) WriteChunk(chunk *world.Chunk) error {
	return ws.set("chunk$"+storagecommon.KeyString(chunk.Key), chunk)
}

func (ws *redisClusterWorldStorage) ReadEntities(area common.ChunkKey) ([]world.EntityRecord, bool, error) {
	var records []world.EntityRecord
	found, err := ws.get("entities$"+storagecommon.KeyString(area), &records)
	return records, found, err
}

func (ws *redisClusterWorldStorage) WriteEntities(area common.ChunkKey, records []world.EntityRecord) error {
	if records == nil {
		records = []world.EntityRecord{}
	}
	return ws.set("entities$"+storagecommon.KeyString(area), records)
}

// Close does nothing, the cluster client keeps no closable handle
func (ws *redisClusterWorldStorage) Close() {
}

func (ws *redisClusterWorldStorage) IsEOF(err error) bool {
	err = errors.Cause(err)
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
