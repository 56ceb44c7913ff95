package generator

import (
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/world"
)

const (
	_MAX_TRIGGERS_PER_CHUNK = 3
	_TRIGGER_SALT           = 1
)

var triggerKinds = []world.TriggerKind{world.TRIGGER_AREA, world.TRIGGER_SPAWN, world.TRIGGER_TIMED}

// TriggerGenerator is a trigger loader generating the triggers of every area it is asked for
type TriggerGenerator struct {
	loader.TriggerEvents

	seed int64
}

// NewTriggerGenerator creates a TriggerGenerator
func NewTriggerGenerator(seed int64) *TriggerGenerator {
	return &TriggerGenerator{seed: seed}
}

// Generate returns the triggers of area, which may be none
func (g *TriggerGenerator) Generate(area common.ChunkKey) []*world.Trigger {
	rng := rngFor(g.seed, area, _TRIGGER_SALT)
	n := rng.Intn(_MAX_TRIGGERS_PER_CHUNK + 1)
	triggers := make([]*world.Trigger, n)
	origin := chunkOrigin(area)
	for i := range triggers {
		pos := origin
		pos.X += rng.Float32() * consts.CHUNK_SIZE
		pos.Z += rng.Float32() * consts.CHUNK_SIZE
		triggers[i] = &world.Trigger{
			Key:      common.TriggerKey{Chunk: area, ID: uint16(i + 1)},
			Kind:     triggerKinds[rng.Intn(len(triggerKinds))],
			Position: pos,
			Radius:   1 + rng.Float32()*3,
		}
	}
	return triggers
}

// LoadTriggers generates the triggers of each area and fires Loaded once per area
func (g *TriggerGenerator) LoadTriggers(areas []common.ChunkKey) {
	for _, area := range areas {
		g.Loaded.Fire(loader.TriggerEvent{Area: area, Triggers: g.Generate(area)})
	}
}

// Dispose does nothing
func (g *TriggerGenerator) Dispose() {}
