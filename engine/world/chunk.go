package world

import (
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

const (
	chunkSizeF = float64(consts.CHUNK_SIZE)
	// TILES_PER_CHUNK is the number of tiles in one chunk
	TILES_PER_CHUNK = consts.CHUNK_SIZE * consts.CHUNK_SIZE
)

// Tile is one column of terrain inside a chunk
type Tile struct {
	Block  common.BlockTypeID
	Height uint8
}

// Light is a point light placed in a chunk
type Light struct {
	Position Vector3
	Color    uint32
	Radius   float32
}

// Chunk is the tile and light payload of one chunk key
type Chunk struct {
	Key    common.ChunkKey
	Tiles  []Tile
	Lights []Light
}

// NewChunk creates an empty chunk
func NewChunk(key common.ChunkKey) *Chunk {
	return &Chunk{
		Key:   key,
		Tiles: make([]Tile, TILES_PER_CHUNK),
	}
}

// TileAt returns the tile at local coordinates x, y
func (c *Chunk) TileAt(x, y int) Tile {
	return c.Tiles[tileIndex(x, y)]
}

// SetTile sets the tile at local coordinates x, y
func (c *Chunk) SetTile(x, y int, t Tile) {
	c.Tiles[tileIndex(x, y)] = t
}

// AddLight adds a light to the chunk
func (c *Chunk) AddLight(l Light) {
	c.Lights = append(c.Lights, l)
}

func (c *Chunk) String() string {
	return "Chunk<" + c.Key.String() + ">"
}

func tileIndex(x, y int) int {
	if x < 0 || x >= consts.CHUNK_SIZE || y < 0 || y >= consts.CHUNK_SIZE {
		gwlog.Panicf("tile (%d, %d) out of chunk", x, y)
	}
	return y*consts.CHUNK_SIZE + x
}

// AppendChunk appends the chunk to the packet
func AppendChunk(p *netutil.Packet, c *Chunk) {
	if len(c.Tiles) != TILES_PER_CHUNK {
		gwlog.Panicf("%s has %d tiles, should be %d", c, len(c.Tiles), TILES_PER_CHUNK)
	}
	p.AppendChunkKey(c.Key)
	for _, t := range c.Tiles {
		p.AppendUint16(uint16(t.Block))
		p.AppendByte(t.Height)
	}
	p.AppendUint16(uint16(len(c.Lights)))
	for _, l := range c.Lights {
		AppendVector3(p, l.Position)
		p.AppendUint32(l.Color)
		p.AppendFloat32(l.Radius)
	}
}

// ReadChunk reads a chunk from the packet
func ReadChunk(p *netutil.Packet) *Chunk {
	c := NewChunk(p.ReadChunkKey())
	for i := range c.Tiles {
		c.Tiles[i].Block = common.BlockTypeID(p.ReadUint16())
		c.Tiles[i].Height = p.ReadOneByte()
	}
	n := int(p.ReadUint16())
	if n > 0 {
		c.Lights = make([]Light, n)
	}
	for i := 0; i < n; i++ {
		c.Lights[i].Position = ReadVector3(p)
		c.Lights[i].Color = p.ReadUint32()
		c.Lights[i].Radius = p.ReadFloat32()
	}
	return c
}
