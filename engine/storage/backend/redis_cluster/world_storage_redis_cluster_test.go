package worldstoragerediscluster

import (
	"io"
	"testing"

	"github.com/bmizerany/assert"
	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/world"
)

// memCluster keeps SET/GET values in memory
type memCluster struct {
	values map[string][]byte
}

func (mc *memCluster) Do(cmd string, args ...interface{}) (interface{}, error) {
	key := args[0].(string)
	switch cmd {
	case "SET":
		mc.values[key] = args[1].([]byte)
		return "OK", nil
	case "GET":
		if v, ok := mc.values[key]; ok {
			return v, nil
		}
		return nil, nil
	}
	return nil, errors.Errorf("unsupported command %s", cmd)
}

func (mc *memCluster) NewBatch() rediscluster.Batch {
	return nil
}

func (mc *memCluster) RunBatch(batch rediscluster.Batch) ([]interface{}, error) {
	return nil, errors.New("batch not supported")
}

func TestRedisClusterWorldStorage(t *testing.T) {
	ws := &redisClusterWorldStorage{c: &memCluster{values: map[string][]byte{}}}
	defer ws.Close()

	key := common.MakeChunkKey(3, -7)
	chunk := world.NewChunk(key)
	chunk.SetTile(1, 2, world.Tile{Block: 2, Height: 4})
	assert.Equal(t, nil, ws.WriteChunk(chunk))
	verify, err := ws.ReadChunk(key)
	assert.Equal(t, nil, err)
	assert.Equal(t, chunk.Tiles, verify.Tiles)

	missing, err := ws.ReadChunk(key.Add(1, 0))
	assert.Equal(t, nil, err)
	assert.T(t, missing == nil)

	e := world.NewEntity(5)
	e.Set(world.PROP_NAME, world.StringValue("npc"))
	assert.Equal(t, nil, ws.WriteEntities(key, []world.EntityRecord{e.Record()}))
	records, found, err := ws.ReadEntities(key)
	assert.Equal(t, nil, err)
	assert.T(t, found)
	assert.Equal(t, 1, len(records))
	assert.Equal(t, e.ID, records[0].ID)

	_, found, err = ws.ReadEntities(key.Add(0, 1))
	assert.Equal(t, nil, err)
	assert.T(t, !found)

	assert.T(t, ws.IsEOF(errors.Wrap(io.EOF, "read")))
	assert.T(t, !ws.IsEOF(errors.New("other")))
}
