package worldstoragefilesystem

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/world"
)

func TestFileSystemWorldStorage(t *testing.T) {
	ws, err := OpenDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	key := common.MakeChunkKey(-3, 7)
	chunk, err := ws.ReadChunk(key)
	assert.Equal(t, nil, err)
	assert.T(t, chunk == nil)

	chunk = world.NewChunk(key)
	chunk.SetTile(3, 4, world.Tile{Block: 9, Height: 2})
	chunk.AddLight(world.Light{Position: world.Vector3{X: 1.5}, Color: 0xff, Radius: 2})
	assert.Equal(t, nil, ws.WriteChunk(chunk))

	verify, err := ws.ReadChunk(key)
	assert.Equal(t, nil, err)
	assert.Equal(t, chunk, verify)

	_, found, err := ws.ReadEntities(key)
	assert.Equal(t, nil, err)
	assert.T(t, !found)

	e := world.NewEntity(3)
	e.SetPosition(world.Vector3{X: 1, Y: 2, Z: 3})
	e.Set(world.PROP_NAME, world.StringValue("npc"))
	assert.Equal(t, nil, ws.WriteEntities(key, []world.EntityRecord{e.Record()}))

	records, found, err := ws.ReadEntities(key)
	assert.Equal(t, nil, err)
	assert.T(t, found)
	assert.Equal(t, []world.EntityRecord{e.Record()}, records)

	// an area saved empty is found, not missing
	empty := key.Add(1, 0)
	assert.Equal(t, nil, ws.WriteEntities(empty, nil))
	records, found, _ = ws.ReadEntities(empty)
	assert.T(t, found)
	assert.Equal(t, 0, len(records))
}
