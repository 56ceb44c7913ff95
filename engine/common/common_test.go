package common

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestChunkKeyAsMapKey(t *testing.T) {
	m := map[ChunkKey]int{}
	m[MakeChunkKey(1, 2)] = 3
	assert.Equal(t, 3, m[ChunkKey{X: 1, Y: 2}])
	assert.Equal(t, "(1, 2)", MakeChunkKey(1, 2).String())
}

func TestKeysAround(t *testing.T) {
	keys := KeysAround(MakeChunkKey(0, 0), 1)
	assert.Equal(t, 9, len(keys))
	ks := NewChunkKeySet(keys...)
	assert.T(t, ks.Contains(MakeChunkKey(-1, 1)), "should contain corner")
	assert.T(t, !ks.Contains(MakeChunkKey(2, 0)), "should not contain")
	assert.Equal(t, 0, len(KeysAround(MakeChunkKey(0, 0), -1)))
}

func TestChunkKeySetDiff(t *testing.T) {
	a := NewChunkKeySet(MakeChunkKey(0, 0), MakeChunkKey(1, 0))
	b := NewChunkKeySet(MakeChunkKey(1, 0))
	diff := a.Diff(b)
	assert.Equal(t, []ChunkKey{MakeChunkKey(0, 0)}, diff)
}

func TestEntityIDSet(t *testing.T) {
	es := EntityIDSet{}
	es.Add(3)
	es.Add(1)
	assert.T(t, es.Contains(1), "should contain")
	es.Del(1)
	assert.T(t, !es.Contains(1), "should not contain")
	es.Add(2)
	assert.Equal(t, []EntityID{2, 3}, es.ToList())
	assert.T(t, NilEntityID.IsNil(), "nil entity id")
}

func TestStringSet(t *testing.T) {
	ss := StringSet{}
	ss.Add("b")
	ss.Add("a")
	ss.Add("b")
	assert.T(t, ss.Contains("a"))
	assert.Equal(t, []string{"a", "b"}, ss.ToList())
	ss.Remove("a")
	assert.T(t, !ss.Contains("a"))
}
