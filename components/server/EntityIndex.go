package server

import (
	"math"

	"github.com/petar/GoLLRB/llrb"
	"github.com/xiaonanln/worldsync/engine/common"
)

// EntityIndex orders entities by the area they are in, so the entities of one area can be visited
type EntityIndex struct {
	btree *llrb.LLRB
	areas map[common.EntityID]common.ChunkKey
}

type entityIndexItem struct {
	area common.ChunkKey
	id   common.EntityID
}

func (it entityIndexItem) Less(_other llrb.Item) bool {
	other := _other.(entityIndexItem)
	if it.area.X != other.area.X {
		return it.area.X < other.area.X
	}
	if it.area.Y != other.area.Y {
		return it.area.Y < other.area.Y
	}
	return it.id < other.id
}

func newEntityIndex() *EntityIndex {
	return &EntityIndex{
		btree: llrb.New(),
		areas: map[common.EntityID]common.ChunkKey{},
	}
}

// Update puts the entity in area, moving it from its previous area
func (ix *EntityIndex) Update(id common.EntityID, area common.ChunkKey) {
	if old, ok := ix.areas[id]; ok {
		if old == area {
			return
		}
		ix.btree.Delete(entityIndexItem{old, id})
	}
	ix.areas[id] = area
	ix.btree.ReplaceOrInsert(entityIndexItem{area, id})
}

// Remove removes the entity
func (ix *EntityIndex) Remove(id common.EntityID) {
	if area, ok := ix.areas[id]; ok {
		ix.btree.Delete(entityIndexItem{area, id})
		delete(ix.areas, id)
	}
}

// Area returns the area of the entity
func (ix *EntityIndex) Area(id common.EntityID) (common.ChunkKey, bool) {
	area, ok := ix.areas[id]
	return area, ok
}

// Visit calls f for each entity in area, in ascending ID order
func (ix *EntityIndex) Visit(area common.ChunkKey, f func(id common.EntityID)) {
	ix.btree.AscendGreaterOrEqual(entityIndexItem{area, math.MinInt32}, func(_item llrb.Item) bool {
		item := _item.(entityIndexItem)
		if item.area != area {
			return false
		}
		f(item.id)
		return true
	})
}

// Len returns the number of entities
func (ix *EntityIndex) Len() int {
	return ix.btree.Len()
}
