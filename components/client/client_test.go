package client

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/worldsync/components/server"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/generator"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/world"
)

const testSeed = 99

func tickUntil(t *testing.T, queue *post.Queue, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		queue.Tick()
		time.Sleep(time.Millisecond)
	}
}

func newTestBot(t *testing.T, viewRadius int32) (*ClientBot, *post.Queue) {
	queue := post.NewQueue()
	ws, err := server.NewWorldService(server.WorldServiceOptions{
		Seed: testSeed,
		Blocks: []*world.BlockProperties{
			world.NewBlockProperties(1, map[string]interface{}{world.BLOCK_PROP_NAME: "grass"}),
			world.NewBlockProperties(2, map[string]interface{}{world.BLOCK_PROP_NAME: "water", world.BLOCK_PROP_SOLID: false}),
		},
		AOIDistance: 100,
		Encoder:     proto.NewEncoder(proto.NewIdentityIssuer(), false),
		Queue:       queue,
	})
	assert.Equal(t, nil, err)

	serverSide, clientSide := net.Pipe()
	go ws.ServeTCPConnection(serverSide)
	bot, err := NewClientBot(1, clientSide, BotOptions{
		Encoder:              proto.NewEncoder(proto.NewIdentityIssuer(), false),
		Queue:                queue,
		ViewRadius:           viewRadius,
		DefaultBlockMaterial: 7,
	})
	assert.Equal(t, nil, err)
	go bot.Serve()
	t.Cleanup(bot.Close)

	tickUntil(t, queue, func() bool { return bot.Player() != nil })
	return bot, queue
}

func TestClientBotSync(t *testing.T) {
	bot, queue := newTestBot(t, 1)
	assert.Equal(t, "ClientBot<1>", bot.String())

	tickUntil(t, queue, func() bool { return bot.blocks.Len() == 2 })
	bp, err := bot.blocks.GetBlockProperties(2)
	assert.Equal(t, nil, err)
	assert.T(t, !bp.IsSolid())
	// unknown block types fall back to the default
	bp, _ = bot.blocks.GetBlockProperties(100)
	assert.Equal(t, 7, bp.Material())

	bot.tick(time.Now())
	tickUntil(t, queue, func() bool { return len(bot.chunks) == 9 })

	center := bot.Player().Position().ChunkKey()
	gen := generator.NewChunkGenerator(testSeed, []common.BlockTypeID{1, 2})
	trigGen := generator.NewTriggerGenerator(testSeed)
	numTriggers := 0
	for _, key := range common.KeysAround(center, 1) {
		assert.Equal(t, gen.Generate(key).Tiles, bot.chunks[key].Tiles)
		numTriggers += len(trigGen.Generate(key))
	}
	tickUntil(t, queue, func() bool { return len(bot.triggers) == numTriggers })
	assert.T(t, bot.entities.IsLocalPlayer(bot.Player().ID))
}

func TestClientBotViewMoves(t *testing.T) {
	bot, queue := newTestBot(t, 0)
	bot.tick(time.Now())
	tickUntil(t, queue, func() bool { return len(bot.chunks) == 1 })

	far := common.MakeChunkKey(100, 100)
	bot.updateView(far)
	assert.Equal(t, 1, len(bot.requested))
	assert.T(t, bot.requested.Contains(far))
	tickUntil(t, queue, func() bool { return bot.chunks[far] != nil })
	assert.Equal(t, 1, len(bot.chunks))
}

func TestClientBotMove(t *testing.T) {
	bot := &ClientBot{rand: rand.New(rand.NewSource(1))}
	player := world.NewEntity(1)
	start := world.Vector3{X: 8, Z: 8}
	player.SetPosition(start)

	bot.move(player, time.Second)
	mv := player.Movement()
	assert.T(t, mv != world.Vector3{})
	dist := player.Position().DistanceTo(start)
	assert.T(t, dist > _BOT_SPEED-0.01 && dist < _BOT_SPEED+0.01)
	assert.Equal(t, start.Y, player.Position().Y)
}
