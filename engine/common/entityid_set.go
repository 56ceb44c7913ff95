package common

import "sort"

// EntityIDSet is the data structure for a set of entity IDs
type EntityIDSet map[EntityID]struct{}

// Add adds an entity ID to EntityIDSet
func (es EntityIDSet) Add(id EntityID) {
	es[id] = struct{}{}
}

// Del removes an entity ID from EntityIDSet
func (es EntityIDSet) Del(id EntityID) {
	delete(es, id)
}

// Contains checks if entity ID is in EntityIDSet
func (es EntityIDSet) Contains(id EntityID) bool {
	_, ok := es[id]
	return ok
}

// ToList convert EntityIDSet to a sorted slice of entity IDs
func (es EntityIDSet) ToList() []EntityID {
	list := make([]EntityID, 0, len(es))
	for eid := range es {
		list = append(list, eid)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i] < list[j]
	})
	return list
}

// ChunkKeySet is a set of chunk keys
type ChunkKeySet map[ChunkKey]struct{}

// NewChunkKeySet creates a ChunkKeySet containing keys
func NewChunkKeySet(keys ...ChunkKey) ChunkKeySet {
	ks := make(ChunkKeySet, len(keys))
	for _, k := range keys {
		ks.Add(k)
	}
	return ks
}

// Add adds the key to ChunkKeySet
func (ks ChunkKeySet) Add(k ChunkKey) {
	ks[k] = struct{}{}
}

// Del removes the key from ChunkKeySet
func (ks ChunkKeySet) Del(k ChunkKey) {
	delete(ks, k)
}

// Contains checks if ChunkKeySet contains the key
func (ks ChunkKeySet) Contains(k ChunkKey) bool {
	_, ok := ks[k]
	return ok
}

// Diff returns keys in ks but not in other
func (ks ChunkKeySet) Diff(other ChunkKeySet) []ChunkKey {
	var res []ChunkKey
	for k := range ks {
		if !other.Contains(k) {
			res = append(res, k)
		}
	}
	return res
}
