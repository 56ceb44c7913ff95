package server

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-aoi"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xiaonanln/worldsync/engine/blocktype"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/dispatch"
	"github.com/xiaonanln/worldsync/engine/generator"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/gwvar"
	"github.com/xiaonanln/worldsync/engine/loader"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/provider"
	"github.com/xiaonanln/worldsync/engine/storage"
	"github.com/xiaonanln/worldsync/engine/world"
	"golang.org/x/net/websocket"
)

const (
	// player entity IDs start high above the IDs of saved entities
	_PLAYER_ENTITY_ID_BASE common.EntityID = 1 << 24
	_PLAYER_INITIAL_HEALTH                 = 100
	_TERMINATE_SAVE_TIMEOUT                = 10 * time.Second
)

var spawnPosition = world.Vector3{X: consts.CHUNK_SIZE / 2, Z: consts.CHUNK_SIZE / 2}

// WorldServiceOptions configures a WorldService
type WorldServiceOptions struct {
	Seed        int64
	Blocks      []*world.BlockProperties
	AOIDistance float32
	Encoder     *proto.Encoder
	// CompressConnection snappy compresses client connections
	CompressConnection bool
	// Storage saves chunks and entities, the world is not saved if nil
	Storage *storage.Storage
	// Queue runs every callback of the service, the service must only be used on the goroutine ticking it
	Queue *post.Queue
}

// WorldService serves chunks, entities, triggers and block types to connected clients
type WorldService struct {
	queue    *post.Queue
	enc      *proto.Encoder
	compress bool
	hub      *dispatch.Hub
	storage  *storage.Storage

	blocks          *blocktype.ServerCache
	world           *provider.Wrapper
	hasEntitySource bool
	chunks          map[common.ChunkKey]*world.Chunk
	pendingChunks   *pendingRequests[common.ChunkKey]
	pendingEntities *pendingRequests[common.ChunkKey]
	pendingTriggers *pendingRequests[common.ChunkKey]
	loadedAreas     common.ChunkKeySet

	entities     *world.EntityTable
	index        *EntityIndex
	aoiMgr       aoi.AOIManager
	aoiDistance  float32
	clients      map[dispatch.Peer]*ClientProxy
	nextPlayerID common.EntityID

	terminating xnsyncutil.AtomicBool
	terminated  *xnsyncutil.OneTimeCond
}

// NewWorldService creates the service and registers its message handlers
func NewWorldService(opts WorldServiceOptions) (*WorldService, error) {
	if len(opts.Blocks) == 0 {
		return nil, errors.New("world service needs at least one block type")
	}
	ws := &WorldService{
		queue:           opts.Queue,
		enc:             opts.Encoder,
		compress:        opts.CompressConnection,
		hub:             dispatch.NewHub(),
		storage:         opts.Storage,
		chunks:          map[common.ChunkKey]*world.Chunk{},
		pendingChunks:   newPendingRequests[common.ChunkKey](),
		pendingEntities: newPendingRequests[common.ChunkKey](),
		pendingTriggers: newPendingRequests[common.ChunkKey](),
		loadedAreas:     common.ChunkKeySet{},
		entities:        world.NewEntityTable(),
		index:           newEntityIndex(),
		aoiMgr:          aoi.NewXZListAOIManager(aoi.Coord(opts.AOIDistance)),
		aoiDistance:     opts.AOIDistance,
		clients:         map[dispatch.Peer]*ClientProxy{},
		nextPlayerID:    _PLAYER_ENTITY_ID_BASE,
		terminated:      xnsyncutil.NewOneTimeCond(),
	}
	if ws.queue == nil {
		ws.queue = post.NewQueue()
	}
	// stale client positions are dropped
	ws.hub.DropExpired = true

	var err error
	if ws.blocks, err = blocktype.NewServerCache(ws.hub, opts.Blocks); err != nil {
		return nil, err
	}
	blockIDs := make([]common.BlockTypeID, len(opts.Blocks))
	for i, bp := range opts.Blocks {
		blockIDs[i] = bp.ID
	}
	ws.setupProviders(opts.Seed, blockIDs)

	handlers := []struct {
		mt proto.MsgType
		h  dispatch.Handler
	}{
		{proto.MT_CHUNKS_REQUESTED, ws.onChunksRequested},
		{proto.MT_ENTITIES_REQUESTED, ws.onEntitiesRequested},
		{proto.MT_TRIGGERS_REQUESTED, ws.onTriggersRequested},
		{proto.MT_POSITION_UPDATED, ws.onPositionUpdated},
		{proto.MT_PROPERTIES_UPDATED, ws.onPropertiesUpdated},
	}
	for _, h := range handlers {
		if err := ws.hub.RegisterMessageCallback(h.mt, h.h); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// setupProviders chains saved chunks before generated ones, generated chunks are saved
func (ws *WorldService) setupProviders(seed int64, blockIDs []common.BlockTypeID) {
	ws.world = provider.NewSimpleWrapper()
	gen := generator.NewAsyncChunkGenerator(seed, blockIDs, ws.queue)
	if ws.storage != nil {
		chunkProvider := storage.NewChunkProvider(ws.storage)
		ws.world.AddChunkProvider(provider.NewChunkChain(chunkProvider, gen))
		ws.world.AddChunkSaver(chunkProvider)

		entityProvider := storage.NewEntityProvider(ws.storage)
		ws.world.AddEntityProvider(provider.NewEntityChain(entityProvider))
		ws.world.AddEntitySaver(entityProvider)
		ws.hasEntitySource = true
	} else {
		ws.world.AddChunkProvider(provider.NewChunkChain(gen))
	}
	ws.world.AddTriggerProvider(generator.NewTriggerGenerator(seed))

	ws.world.Chunks.Loaded.Subscribe(ws.onChunksLoaded)
	ws.world.Chunks.Generated.Subscribe(func(ev loader.ChunkEvent) {
		ws.world.SaveChunks(ev.Chunks)
		ws.onChunksLoaded(ev)
	})
	ws.world.Chunks.Unavailable.Subscribe(ws.onChunksUnavailable)
	ws.world.Entities.Loaded.Subscribe(ws.onEntitiesLoaded)
	ws.world.Entities.Unavailable.Subscribe(ws.onEntitiesUnavailable)
	ws.world.Triggers.Loaded.Subscribe(ws.onTriggersLoaded)
}

func (ws *WorldService) String() string {
	return fmt.Sprintf("WorldService<%d clients>", len(ws.clients))
}

// ServeTCPConnection serves one client connection until it is closed
func (ws *WorldService) ServeTCPConnection(netconn net.Conn) {
	if ws.terminating.Load() {
		// service terminating, not accepting more connections
		netconn.Close()
		return
	}

	conn := dispatch.NewConn(netutil.NewConnection(netconn, ws.compress), ws.enc)
	ws.queue.Post(func() {
		ws.onClientConnected(conn)
	})
	if err := conn.Serve(ws.hub.Dispatcher, ws.queue); err != nil {
		gwlog.Errorf("%s: %s", ws, err)
	}
	conn.Close()
	ws.queue.Post(func() {
		ws.onClientDisconnected(conn)
	})
}

// ServeWebSocketConnection serves one websocket client until it is closed
func (ws *WorldService) ServeWebSocketConnection(wsConn *websocket.Conn) {
	wsConn.PayloadType = websocket.BinaryFrame
	ws.ServeTCPConnection(wsConn)
}

func (ws *WorldService) onClientConnected(conn *dispatch.Conn) {
	id := ws.nextPlayerID
	ws.nextPlayerID++

	player := world.NewEntity(id)
	player.SetPosition(spawnPosition)
	player.Set(world.PROP_NAME, world.StringValue(fmt.Sprintf("player%d", id-_PLAYER_ENTITY_ID_BASE+1)))
	player.Set(world.PROP_HEALTH, world.IntValue(_PLAYER_INITIAL_HEALTH))
	player.ClearDirty()

	cp := newClientProxy(conn, player, ws.aoiDistance)
	ws.clients[conn] = cp
	ws.entities.Put(player)
	ws.index.Update(id, spawnPosition.ChunkKey())
	ws.hub.AddPeer(conn)
	ws.publishStats()
	gwlog.Infof("%s: %s connected", ws, cp)

	cp.send(&proto.PlayerAssigned{EntityID: id})
	cp.send(&proto.EntitiesCreated{Area: spawnPosition.ChunkKey(), Entities: []*world.Entity{player}})
	ws.aoiMgr.Enter(&cp.aoi, aoi.Coord(spawnPosition.X), aoi.Coord(spawnPosition.Z))
}

func (ws *WorldService) onClientDisconnected(conn *dispatch.Conn) {
	cp := ws.clients[conn]
	if cp == nil {
		return
	}
	gwlog.Infof("%s: %s disconnected", ws, cp)

	ws.aoiMgr.Leave(&cp.aoi)
	delete(ws.clients, conn)
	ws.entities.Del(cp.player.ID)
	ws.index.Remove(cp.player.ID)
	ws.hub.RemovePeer(conn)
	ws.pendingChunks.dropPeer(conn)
	ws.pendingEntities.dropPeer(conn)
	ws.pendingTriggers.dropPeer(conn)
	ws.publishStats()
}

func (ws *WorldService) publishStats() {
	gwvar.NumClients.Set(int64(len(ws.clients)))
	gwvar.NumEntities.Set(int64(ws.entities.Len()))
	gwvar.NumChunksCached.Set(int64(len(ws.chunks)))
}

func (ws *WorldService) clientOf(from dispatch.Peer, m proto.Message) *ClientProxy {
	cp := ws.clients[from]
	if cp == nil {
		gwlog.Warnf("%s: %s from unknown peer %v", ws, proto.MsgTypeName(m.Type()), from)
	}
	return cp
}

func sendTo(peer dispatch.Peer, m proto.Message) {
	if err := peer.Send(m); err != nil {
		gwlog.Warnf("send %s to %v failed: %v", proto.MsgTypeName(m.Type()), peer, err)
	}
}

func (ws *WorldService) onChunksRequested(m proto.Message, from dispatch.Peer) {
	var toLoad []common.ChunkKey
	for _, key := range m.(*proto.ChunksRequested).Keys {
		if chunk := ws.chunks[key]; chunk != nil {
			sendTo(from, &proto.ChunkUpdated{Chunk: chunk})
		} else if ws.pendingChunks.add(key, from) {
			toLoad = append(toLoad, key)
		}
	}
	if len(toLoad) > 0 {
		ws.world.LoadChunks(toLoad)
	}
}

func (ws *WorldService) onChunksLoaded(ev loader.ChunkEvent) {
	for _, chunk := range ev.Chunks {
		ws.chunks[chunk.Key] = chunk
		for _, peer := range ws.pendingChunks.take(chunk.Key) {
			sendTo(peer, &proto.ChunkUpdated{Chunk: chunk})
		}
	}
	ws.publishStats()
}

func (ws *WorldService) onChunksUnavailable(ev loader.KeysEvent) {
	gwlog.Errorf("%s: chunks unavailable: %v", ws, ev.Keys)
	for _, key := range ev.Keys {
		ws.pendingChunks.take(key)
	}
}

func (ws *WorldService) onEntitiesRequested(m proto.Message, from dispatch.Peer) {
	var toLoad []common.ChunkKey
	for _, area := range m.(*proto.EntitiesRequested).Areas {
		if !ws.hasEntitySource {
			ws.loadedAreas.Add(area)
		}
		if ws.loadedAreas.Contains(area) {
			ws.sendEntitiesIn(from, area)
		} else if ws.pendingEntities.add(area, from) {
			toLoad = append(toLoad, area)
		}
	}
	if len(toLoad) > 0 {
		ws.world.LoadEntitiesIn(toLoad)
	}
}

// sendEntitiesIn sends the entities in area to peer, an empty list tells the area has no entities
func (ws *WorldService) sendEntitiesIn(peer dispatch.Peer, area common.ChunkKey) {
	var entities []*world.Entity
	ws.index.Visit(area, func(id common.EntityID) {
		if e := ws.entities.Get(id); e != nil {
			entities = append(entities, e)
		}
	})
	sendTo(peer, &proto.EntitiesCreated{Area: area, Entities: entities})
}

func (ws *WorldService) onEntitiesLoaded(ev loader.EntityEvent) {
	for _, e := range ev.Entities {
		ws.entities.Put(e)
		ws.index.Update(e.ID, ev.Area)
	}
	ws.publishStats()
	ws.areaLoaded(ev.Area)
}

func (ws *WorldService) onEntitiesUnavailable(ev loader.AreasEvent) {
	for _, area := range ev.Areas {
		ws.areaLoaded(area)
	}
}

func (ws *WorldService) areaLoaded(area common.ChunkKey) {
	ws.loadedAreas.Add(area)
	for _, peer := range ws.pendingEntities.take(area) {
		ws.sendEntitiesIn(peer, area)
	}
}

func (ws *WorldService) onTriggersRequested(m proto.Message, from dispatch.Peer) {
	var toLoad []common.ChunkKey
	for _, area := range m.(*proto.TriggersRequested).Areas {
		if ws.pendingTriggers.add(area, from) {
			toLoad = append(toLoad, area)
		}
	}
	if len(toLoad) > 0 {
		ws.world.LoadTriggers(toLoad)
	}
}

func (ws *WorldService) onTriggersLoaded(ev loader.TriggerEvent) {
	for _, peer := range ws.pendingTriggers.take(ev.Area) {
		sendTo(peer, &proto.TriggersCreated{Area: ev.Area, Triggers: ev.Triggers})
	}
}

// onPositionUpdated moves the player of the sender and relays the update to its neighbors
func (ws *WorldService) onPositionUpdated(m proto.Message, from dispatch.Peer) {
	cp := ws.clientOf(from, m)
	if cp == nil {
		return
	}
	msg := m.(*proto.PositionUpdated)
	if msg.EntityID != cp.player.ID {
		gwlog.Warnf("%s: %s moves entity %d it does not control", ws, cp, msg.EntityID)
		return
	}

	player := cp.player
	player.SetPosition(msg.Position)
	player.SetRotation(msg.Rotation)
	player.SetMovement(msg.Movement)
	player.ClearDirty()
	ws.index.Update(player.ID, msg.Position.ChunkKey())
	ws.aoiMgr.Moved(&cp.aoi, aoi.Coord(msg.Position.X), aoi.Coord(msg.Position.Z))

	cp.sendToNeighbors(&proto.PositionUpdated{
		EntityID: player.ID,
		Position: msg.Position,
		Rotation: msg.Rotation,
		Movement: msg.Movement,
	})
}

// onPropertiesUpdated applies the client authoritative properties of the sender's player and relays them
func (ws *WorldService) onPropertiesUpdated(m proto.Message, from dispatch.Peer) {
	cp := ws.clientOf(from, m)
	if cp == nil {
		return
	}
	msg := m.(*proto.PropertiesUpdated)
	if msg.EntityID != cp.player.ID {
		gwlog.Warnf("%s: %s updates entity %d it does not control", ws, cp, msg.EntityID)
		return
	}

	var props []world.Property
	for _, prop := range msg.Properties {
		if world.IsClientAuthoritative(prop.ID) {
			props = append(props, prop)
		} else {
			gwlog.Warnf("%s: %s sets server authoritative property %d", ws, cp, prop.ID)
		}
	}
	if len(props) == 0 {
		return
	}
	cp.player.Apply(props)
	cp.player.ClearDirty()
	cp.sendToNeighbors(&proto.PropertiesUpdated{EntityID: cp.player.ID, Properties: props})
}

// npcsIn returns the entities in area which are not players
func (ws *WorldService) npcsIn(area common.ChunkKey) []*world.Entity {
	var npcs []*world.Entity
	ws.index.Visit(area, func(id common.EntityID) {
		if id >= _PLAYER_ENTITY_ID_BASE {
			return
		}
		if e := ws.entities.Get(id); e != nil {
			npcs = append(npcs, e)
		}
	})
	return npcs
}

// saveEntities saves the entities of every loaded area
func (ws *WorldService) saveEntities() {
	if !ws.hasEntitySource {
		return
	}
	for area := range ws.loadedAreas {
		ws.world.SaveEntities(area, ws.npcsIn(area))
	}
	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("%s: saved entities of %d areas", ws, len(ws.loadedAreas))
	}
}
