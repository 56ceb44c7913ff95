package world

import (
	"fmt"
	"math"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

// Coord is the type of world coordinates
type Coord = float32

// Vector3 is a position, rotation or movement vector in the world
type Vector3 struct {
	X Coord
	Y Coord
	Z Coord
}

func (p Vector3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

// DistanceTo calculates distance between two positions
func (p Vector3) DistanceTo(o Vector3) Coord {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return Coord(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// Sub calculates Vector3 p - Vector3 o
func (p Vector3) Sub(o Vector3) Vector3 {
	return Vector3{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// Add calculates Vector3 p + Vector3 o
func (p Vector3) Add(o Vector3) Vector3 {
	return Vector3{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Mul calculates Vector3 p * m
func (p Vector3) Mul(m Coord) Vector3 {
	return Vector3{p.X * m, p.Y * m, p.Z * m}
}

// ChunkKey returns the key of the chunk containing the position (X and Z are the ground plane)
func (p Vector3) ChunkKey() common.ChunkKey {
	return common.ChunkKey{
		X: int32(math.Floor(float64(p.X) / chunkSizeF)),
		Y: int32(math.Floor(float64(p.Z) / chunkSizeF)),
	}
}

// AppendVector3 appends the vector to the packet
func AppendVector3(p *netutil.Packet, v Vector3) {
	p.AppendFloat32(v.X)
	p.AppendFloat32(v.Y)
	p.AppendFloat32(v.Z)
}

// ReadVector3 reads a vector from the packet
func ReadVector3(p *netutil.Packet) Vector3 {
	x := p.ReadFloat32()
	y := p.ReadFloat32()
	z := p.ReadFloat32()
	return Vector3{x, y, z}
}
