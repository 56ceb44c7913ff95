package client

import (
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/xiaonanln/worldsync/engine/blocktype"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/netloader"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/provider"
	"github.com/xiaonanln/worldsync/engine/world"
)

const (
	_BOT_SPEED             = 4 // units per second
	_BOT_TURN_PROBABILITY  = 0.05
	_DEFAULT_BLOCK_TYPE_ID = 0
	_DEFAULT_BLOCK_NAME    = "unknown"
)

// BotOptions configures a ClientBot
type BotOptions struct {
	Encoder              *proto.Encoder
	CompressConnection   bool
	Queue                *post.Queue
	ViewRadius           int32
	DefaultBlockMaterial int
	// Walk makes the bot wander around instead of standing at the spawn point
	Walk bool
}

// ClientBot is a headless client: it keeps the world around its player in sync with the server
type ClientBot struct {
	id         int
	ep         *dispatch.Endpoint
	blocks     *blocktype.ClientCache
	world      *provider.Wrapper
	entities   *world.EntityTable
	chunks     map[common.ChunkKey]*world.Chunk
	triggers   map[common.TriggerKey]*world.Trigger
	requested  common.ChunkKeySet
	viewRadius int32
	walk       bool
	rand       *rand.Rand
	lastSync   time.Time
}

// NewClientBot creates a bot over conn, messages are dispatched on opts.Queue
func NewClientBot(id int, conn net.Conn, opts BotOptions) (*ClientBot, error) {
	bot := &ClientBot{
		id:         id,
		ep:         dispatch.NewEndpoint(netutil.NewConnection(conn, opts.CompressConnection), opts.Encoder, opts.Queue),
		entities:   world.NewEntityTable(),
		chunks:     map[common.ChunkKey]*world.Chunk{},
		triggers:   map[common.TriggerKey]*world.Trigger{},
		requested:  common.ChunkKeySet{},
		viewRadius: opts.ViewRadius,
		walk:       opts.Walk,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
	}
	// player and entity positions arrive unreliably, stale ones are dropped
	bot.ep.DropExpired = true

	def := world.NewBlockProperties(_DEFAULT_BLOCK_TYPE_ID, map[string]interface{}{
		world.BLOCK_PROP_NAME:     _DEFAULT_BLOCK_NAME,
		world.BLOCK_PROP_MATERIAL: opts.DefaultBlockMaterial,
	})
	var err error
	if bot.blocks, err = blocktype.NewClientCache(bot.ep, def); err != nil {
		return nil, err
	}
	if err = bot.setupLoaders(); err != nil {
		bot.blocks.Dispose()
		return nil, err
	}
	return bot, nil
}

func (bot *ClientBot) setupLoaders() error {
	chunkLoader, err := netloader.NewChunkLoader(bot.ep)
	if err != nil {
		return err
	}
	entityLoader, err := netloader.NewEntityLoader(bot.ep, bot.entities)
	if err != nil {
		chunkLoader.Dispose()
		return err
	}
	triggerLoader, err := netloader.NewTriggerLoader(bot.ep)
	if err != nil {
		chunkLoader.Dispose()
		entityLoader.Dispose()
		return err
	}

	bot.world = provider.NewSimpleWrapper()
	bot.world.AddChunkProvider(provider.NewChunkChain(chunkLoader))
	bot.world.AddEntityProvider(provider.NewEntityChain(entityLoader))
	bot.world.AddTriggerProvider(provider.NewTriggerChain(triggerLoader))

	bot.world.Chunks.Loaded.Subscribe(bot.onChunksLoaded)
	bot.world.Chunks.Unavailable.Subscribe(func(ev loader.KeysEvent) {
		gwlog.Warnf("%s: chunks unavailable: %v", bot, ev.Keys)
	})
	bot.world.Entities.Loaded.Subscribe(bot.onEntitiesLoaded)
	bot.world.Entities.Deleted.Subscribe(func(ev loader.EntityIDsEvent) {
		if consts.DEBUG_CLIENTS {
			gwlog.Debugf("%s: entities destroyed: %v", bot, ev.IDs)
		}
	})
	bot.world.Triggers.Loaded.Subscribe(func(ev loader.TriggerEvent) {
		for _, t := range ev.Triggers {
			bot.triggers[t.Key] = t
		}
	})
	bot.world.Triggers.Deleted.Subscribe(func(ev loader.TriggerKeysEvent) {
		for _, key := range ev.Keys {
			delete(bot.triggers, key)
		}
	})
	return nil
}

func (bot *ClientBot) String() string {
	return fmt.Sprintf("ClientBot<%d>", bot.id)
}

// Serve receives messages until the connection is closed
func (bot *ClientBot) Serve() error {
	return bot.ep.Serve()
}

// Close closes the connection and disposes the loaders
func (bot *ClientBot) Close() {
	bot.ep.Close()
	bot.world.Dispose()
	bot.blocks.Dispose()
}

// Player returns the local player, nil before the server has assigned and created it
func (bot *ClientBot) Player() *world.Entity {
	id := bot.entities.LocalPlayer()
	if id.IsNil() {
		return nil
	}
	return bot.entities.Get(id)
}

func (bot *ClientBot) onChunksLoaded(ev loader.ChunkEvent) {
	for _, chunk := range ev.Chunks {
		if !bot.requested.Contains(chunk.Key) {
			// left the view while loading
			continue
		}
		bot.chunks[chunk.Key] = chunk
	}
}

func (bot *ClientBot) onEntitiesLoaded(ev loader.EntityEvent) {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s: %d entities loaded in %s", bot, len(ev.Entities), ev.Area)
	}
}

// tick moves the player by the time elapsed since the last tick, then syncs its position and view
func (bot *ClientBot) tick(now time.Time) {
	var dt time.Duration
	if !bot.lastSync.IsZero() {
		dt = now.Sub(bot.lastSync)
	}
	bot.lastSync = now

	player := bot.Player()
	if player == nil {
		return
	}
	if bot.walk {
		bot.move(player, dt)
	}
	bot.ep.Send(&proto.PositionUpdated{
		EntityID: player.ID,
		Position: player.Position(),
		Rotation: player.Rotation(),
		Movement: player.Movement(),
	})
	bot.updateView(player.Position().ChunkKey())
}

// move predicts the position of the player from its movement, turning randomly now and then
func (bot *ClientBot) move(player *world.Entity, dt time.Duration) {
	mv := player.Movement()
	if (mv == world.Vector3{}) || bot.rand.Float64() < _BOT_TURN_PROBABILITY {
		yaw := bot.rand.Float64() * 2 * math.Pi
		mv = world.Vector3{X: world.Coord(math.Cos(yaw)), Z: world.Coord(math.Sin(yaw))}.Mul(_BOT_SPEED)
		player.SetMovement(mv)
		player.SetRotation(world.Vector3{Y: world.Coord(yaw * 180 / math.Pi)})
	}
	player.SetPosition(player.Position().Add(mv.Mul(world.Coord(dt.Seconds()))))
}

// updateView requests the chunks, entities and triggers around center which are not requested yet
// and forgets the ones out of view
func (bot *ClientBot) updateView(center common.ChunkKey) {
	view := common.NewChunkKeySet(common.KeysAround(center, bot.viewRadius)...)
	for _, key := range bot.requested.Diff(view) {
		bot.requested.Del(key)
		delete(bot.chunks, key)
		for tk := range bot.triggers {
			if tk.Chunk == key {
				delete(bot.triggers, tk)
			}
		}
	}

	keys := view.Diff(bot.requested)
	if len(keys) == 0 {
		return
	}
	for _, key := range keys {
		bot.requested.Add(key)
	}
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s: view moves to %s, requesting %d chunks", bot, center, len(keys))
	}
	bot.world.LoadChunks(keys)
	bot.world.LoadEntitiesIn(keys)
	bot.world.LoadTriggers(keys)
}
