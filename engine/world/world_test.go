package world

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

func TestChunkCodec(t *testing.T) {
	c := NewChunk(common.MakeChunkKey(3, -2))
	c.SetTile(1, 2, Tile{Block: 5, Height: 7})
	c.AddLight(Light{Position: Vector3{1, 2, 3}, Color: 0xffcc00, Radius: 4})

	p := netutil.NewPacket()
	defer p.Release()
	AppendChunk(p, c)
	c2 := ReadChunk(p)

	assert.Equal(t, c, c2)
	assert.Equal(t, Tile{Block: 5, Height: 7}, c2.TileAt(1, 2))
	assert.Equal(t, false, p.HasUnreadPayload())
}

func TestPropertyValueCodec(t *testing.T) {
	props := []Property{
		{PROP_POSITION, VectorValue(Vector3{1, 2, 3})},
		{PROP_HEALTH, ShortValue(-3)},
		{PROP_NAME, StringValue("bob")},
		{PROP_MODEL, BytesValue([]byte{1, 2})},
		{100, IntValue(1 << 20)},
		{101, FloatValue(0.5)},
	}
	p := netutil.NewPacket()
	defer p.Release()
	AppendProperties(p, props)
	assert.Equal(t, props, ReadProperties(p))
}

func TestEntityDirty(t *testing.T) {
	e := NewEntity(1)
	e.SetPosition(Vector3{1, 0, 1})
	e.Set(PROP_HEALTH, IntValue(10))
	assert.T(t, e.IsDirty(PROP_POSITION))
	assert.Equal(t, 2, len(e.DirtyProperties()))

	e.ClearDirty()
	assert.Equal(t, 0, len(e.DirtyProperties()))
	e.SetRotation(Vector3{0, 90, 0})
	assert.Equal(t, []Property{{PROP_ROTATION, VectorValue(Vector3{0, 90, 0})}}, e.DirtyProperties())
	assert.Equal(t, Vector3{1, 0, 1}, e.Position())

	e2 := FromRecord(e.Record())
	assert.Equal(t, e.Properties(), e2.Properties())
	assert.Equal(t, 0, len(e2.DirtyProperties()))
}

func TestEntityTable(t *testing.T) {
	table := NewEntityTable()
	table.Put(NewEntity(1))
	table.Put(NewEntity(2))
	assert.Equal(t, 2, table.Len())
	assert.T(t, !table.IsLocalPlayer(1))

	table.SetLocalPlayer(1)
	assert.T(t, table.IsLocalPlayer(1))
	assert.T(t, !table.IsLocalPlayer(2))

	assert.Equal(t, common.EntityID(2), table.Del(2).ID)
	assert.T(t, table.Get(2) == nil)

	n := 0
	table.Each(func(e *Entity) { n++ })
	assert.Equal(t, 1, n)
}

func TestBlockProperties(t *testing.T) {
	bp := NewBlockProperties(5, map[string]interface{}{"material": 2, "name": "stone"})
	p := netutil.NewPacket()
	defer p.Release()
	AppendBlockProperties(p, bp)
	bp2 := ReadBlockProperties(p)

	assert.Equal(t, common.BlockTypeID(5), bp2.ID)
	assert.Equal(t, 2, bp2.Material())
	assert.Equal(t, "stone", bp2.Name())
	assert.T(t, bp2.IsSolid())
}

func TestVectorChunkKey(t *testing.T) {
	assert.Equal(t, common.MakeChunkKey(0, 0), Vector3{1, 100, 15.9}.ChunkKey())
	assert.Equal(t, common.MakeChunkKey(-1, 1), Vector3{-0.5, 0, 16}.ChunkKey())
}
