package proto

import (
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/world"
)

func roundTrip(t *testing.T, enc *Encoder, m Message) Message {
	p := netutil.NewPacket()
	defer p.Release()
	enc.Encode(m, p)
	m2, err := enc.Decode(p)
	if err != nil {
		t.Fatalf("decode %T failed: %v", m, err)
	}
	assert.Equal(t, m.Type(), m2.Type())
	return m2
}

// sameExceptIdentity compares the messages ignoring identity and the receive timestamp
func sameExceptIdentity(t *testing.T, m, m2 Message) {
	m2.Header().ID = m.Header().ID
	m2.Header().CreatedAt = m.Header().CreatedAt
	assert.Equal(t, m, m2)
}

func TestRoundTrip(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), false)
	ck := common.MakeChunkKey(1, -1)

	chunk := world.NewChunk(ck)
	chunk.SetTile(0, 0, world.Tile{Block: 3, Height: 1})

	custom := &ChunksRequested{Keys: []common.ChunkKey{ck}}
	custom.ExpiryDelay = 1500 * time.Millisecond
	never := &PositionUpdated{EntityID: 3, Position: world.Vector3{X: 1}, Rotation: world.Vector3{Y: 2}, Movement: world.Vector3{Z: 3}}
	never.SetNeverExpires()

	msgs := []Message{
		custom,
		never,
		&ChunkUpdated{Chunk: chunk},
		&EntitiesRequested{Areas: []common.ChunkKey{ck, ck.Add(1, 0)}},
		&EntitiesDestroyed{IDs: []common.EntityID{1, 2}},
		&PropertiesUpdated{EntityID: 9, Properties: []world.Property{{ID: world.PROP_HEALTH, Value: world.IntValue(50)}}},
		&BlockTypesRequested{},
		&TriggersRequested{Areas: []common.ChunkKey{ck}},
		&TriggersCreated{Area: ck, Triggers: []*world.Trigger{{Key: common.TriggerKey{Chunk: ck, ID: 2}, Kind: world.TRIGGER_AREA, Radius: 3}}},
		&TriggersDeleted{Keys: []common.TriggerKey{{Chunk: ck, ID: 2}}},
		&PlayerAssigned{EntityID: 77},
	}
	for _, m := range msgs {
		sameExceptIdentity(t, m, roundTrip(t, enc, m))
	}
	assert.Equal(t, NeverExpires, never.Header().ExpiryDelay)
}

func TestRoundTripEntitiesAndBlocks(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), true)
	e := world.NewEntity(5)
	e.SetPosition(world.Vector3{X: 1, Y: 2, Z: 3})
	e.Set(world.PROP_NAME, world.StringValue("alice"))

	m := &EntitiesCreated{Area: common.MakeChunkKey(2, 2), Entities: []*world.Entity{e}}
	m2 := roundTrip(t, enc, m).(*EntitiesCreated)
	assert.Equal(t, m.Header().ID, m2.Header().ID)
	assert.Equal(t, m.Area, m2.Area)
	assert.Equal(t, 1, len(m2.Entities))
	assert.Equal(t, e.ID, m2.Entities[0].ID)
	assert.Equal(t, e.Properties(), m2.Entities[0].Properties())

	bd := &BlockData{Properties: world.NewBlockProperties(5, map[string]interface{}{"material": 2, "name": "stone"})}
	bd2 := roundTrip(t, enc, bd).(*BlockData)
	assert.Equal(t, common.BlockTypeID(5), bd2.Properties.ID)
	assert.Equal(t, 2, bd2.Properties.Material())
	assert.Equal(t, "stone", bd2.Properties.Name())
}

func TestIdentityAssignedAtSend(t *testing.T) {
	issuer := NewIdentityIssuer()
	enc := NewEncoder(issuer, true)
	m := &PlayerAssigned{EntityID: 1}
	assert.Equal(t, int32(0), m.ID)

	m2 := roundTrip(t, enc, m)
	assert.Equal(t, int32(1), m.ID)
	assert.Equal(t, int32(1), m2.Header().ID)

	roundTrip(t, enc, m)
	assert.Equal(t, int32(2), m.ID)

	issuer.Reset()
	roundTrip(t, enc, m)
	assert.Equal(t, int32(1), m.ID)
}

func TestIdentityIssuerConcurrent(t *testing.T) {
	issuer := NewIdentityIssuer()
	const N, G = 1000, 8
	ids := make(chan int32, N*G)
	var wg sync.WaitGroup
	for g := 0; g < G; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < N; i++ {
				ids <- issuer.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int32]bool{}
	for id := range ids {
		assert.Tf(t, !seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Equal(t, N*G, len(seen))
	assert.Equal(t, int32(N*G), issuer.Last())
}

func TestHasExpired(t *testing.T) {
	created := time.Unix(1000, 0)
	env := &Envelope{CreatedAt: created}

	// default expiry
	assert.T(t, !env.HasExpired(created.Add(500*time.Millisecond)))
	assert.T(t, env.HasExpired(created.Add(501*time.Millisecond)))

	for _, d := range []time.Duration{time.Millisecond, 100 * time.Millisecond, time.Hour} {
		env.ExpiryDelay = d
		for _, elapsed := range []time.Duration{0, d / 2, d, d + 1, 2 * d} {
			assert.Equal(t, elapsed > d, env.HasExpired(created.Add(elapsed)))
		}
	}

	env.SetNeverExpires()
	for _, elapsed := range []time.Duration{0, time.Second, 24 * 365 * time.Hour} {
		assert.T(t, !env.HasExpired(created.Add(elapsed)))
	}
}

func TestDecodeUnknownType(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), false)
	p := netutil.NewPacket()
	defer p.Release()
	p.AppendUint16(9999)
	_, err := enc.Decode(p)
	assert.Equal(t, ErrUnknownMsgType, errors.Cause(err))
}

func TestDecodeMalformed(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), false)
	p := netutil.NewPacket()
	defer p.Release()
	p.AppendUint16(uint16(MT_PLAYER_ASSIGNED))
	p.AppendBool(false)
	p.AppendByte(1)
	_, err := enc.Decode(p)
	assert.Equal(t, ErrMalformedMessage, errors.Cause(err))
}

func TestDecodeListLongerThanPayload(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), false)
	for _, mt := range []MsgType{MT_CHUNKS_REQUESTED, MT_ENTITIES_REQUESTED, MT_TRIGGERS_REQUESTED, MT_ENTITIES_DESTROYED} {
		p := netutil.NewPacket()
		p.AppendUint16(uint16(mt))
		p.AppendBool(false)
		p.AppendUint32(1 << 30)
		_, err := enc.Decode(p)
		assert.Equal(t, ErrMalformedMessage, errors.Cause(err))
		p.Release()
	}
}

func TestDependsOnAndSubMessages(t *testing.T) {
	assert.Equal(t, 0, len((&ChunksRequested{}).DependsOn()))
	assert.Equal(t, []common.EntityID{4}, (&PropertiesUpdated{EntityID: 4}).DependsOn())
	assert.Equal(t, []common.EntityID{4}, (&PositionUpdated{EntityID: 4}).DependsOn())
	assert.Equal(t, []common.EntityID{1, 2}, (&EntitiesDestroyed{IDs: []common.EntityID{1, 2}}).DependsOn())

	single := &EntitiesCreated{Entities: []*world.Entity{world.NewEntity(1)}}
	assert.Equal(t, 0, len(single.SubMessages()))

	area := common.MakeChunkKey(3, 4)
	multi := &EntitiesCreated{Area: area, Entities: []*world.Entity{world.NewEntity(1), world.NewEntity(2)}}
	subs := multi.SubMessages()
	assert.Equal(t, 2, len(subs))
	for i, sub := range subs {
		ec := sub.(*EntitiesCreated)
		assert.Equal(t, area, ec.Area)
		assert.Equal(t, multi.Entities[i], ec.Entities[0])
	}
}

func TestDefaultExpiry(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), false)
	enc.DefaultExpiry = 2 * time.Second

	m := roundTrip(t, enc, &ChunksRequested{})
	assert.Equal(t, 2*time.Second, m.Header().ExpiryDelay)

	own := &ChunksRequested{}
	own.ExpiryDelay = time.Second
	m = roundTrip(t, enc, own)
	assert.Equal(t, time.Second, m.Header().ExpiryDelay)

	enc.DefaultExpiry = NeverExpires
	m = roundTrip(t, enc, &ChunksRequested{})
	assert.Equal(t, NeverExpires, m.Header().ExpiryDelay)
}

func TestExpiryFitsWire(t *testing.T) {
	enc := NewEncoder(NewIdentityIssuer(), false)

	short := &ChunksRequested{}
	short.ExpiryDelay = 300 * time.Microsecond
	m := roundTrip(t, enc, short)
	assert.Equal(t, time.Millisecond, m.Header().ExpiryDelay)
	assert.Equal(t, time.Millisecond, short.ExpiryDelay)

	odd := &ChunksRequested{}
	odd.ExpiryDelay = 1500 * time.Microsecond
	m = roundTrip(t, enc, odd)
	assert.Equal(t, 2*time.Millisecond, m.Header().ExpiryDelay)

	negative := &ChunksRequested{}
	negative.ExpiryDelay = -time.Second
	assert.Equal(t, NeverExpires, negative.Expiry())
	assert.Equal(t, false, negative.HasExpired(time.Now().Add(time.Hour)))
	m = roundTrip(t, enc, negative)
	assert.Equal(t, NeverExpires, m.Header().ExpiryDelay)
	assert.Equal(t, NeverExpires, negative.ExpiryDelay)
}
