// Package server is the world server: it serves chunks, entities, triggers and block types to clients
package server

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaonanln/goTimer"
	"github.com/xiaonanln/worldsync/engine/async"
	"github.com/xiaonanln/worldsync/engine/binutil"
	"github.com/xiaonanln/worldsync/engine/config"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/gwvar"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/opmon"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/proto"
	"github.com/xiaonanln/worldsync/engine/storage"
	"github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
)

const _PROCESS_STATS_INTERVAL = time.Minute

var args struct {
	configFile      string
	logLevel        string
	runInDaemonMode bool
}

var (
	worldService *WorldService
	signalChan   = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

// Start fires up the world server
func Start() {
	rand.Seed(time.Now().UnixNano())
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize()
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	serverConfig := config.GetServer()
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = serverConfig.LogLevel
	}
	binutil.SetupGWLog("server", logLevel, serverConfig.LogFile, serverConfig.LogStderr)
	gwlog.Infof("Read server config: \n%s\n", config.DumpPretty(serverConfig))
	binutil.StartProcessStats(context.Background(), _PROCESS_STATS_INTERVAL)
	if consts.OPMON_DUMP_INTERVAL > 0 {
		opmon.StartDumping(consts.OPMON_DUMP_INTERVAL)
	}

	queue := post.NewQueue()
	st := openStorage(queue)
	msgConfig := config.GetMessage()
	enc := proto.NewEncoder(proto.NewIdentityIssuer(), msgConfig.DebugMessageID)
	enc.DefaultExpiry = msgConfig.ExpiryDelay

	var err error
	worldService, err = NewWorldService(WorldServiceOptions{
		Seed:        serverConfig.WorldSeed,
		Blocks:      blockTypesFromConfig(config.GetBlocks()),
		AOIDistance: serverConfig.AOIDistance,
		Encoder:     enc,
		Storage:     st,
		Queue:       queue,

		CompressConnection: msgConfig.CompressConnection,
	})
	if err != nil {
		gwlog.Fatalf("create world service failed: %+v", err)
	}
	binutil.SetupHTTPServer(serverConfig.HTTPAddr, worldService.ServeWebSocketConnection)

	go netutil.ServeTCPForever(serverConfig.ListenAddr, worldService)
	if serverConfig.KCPListenAddr != "" {
		go netutil.ServeForever(func() {
			if err := netutil.ServeKCP(serverConfig.KCPListenAddr, worldService); err != nil {
				gwlog.Panic(err)
			}
		})
	}
	setupSignals()
	worldService.run(time.Duration(serverConfig.TickIntervalMS)*time.Millisecond, serverConfig.SaveInterval)
}

func openStorage(queue *post.Queue) *storage.Storage {
	cfg := config.GetStorage()
	if cfg.Type == "" {
		gwlog.Warnf("storage is not configured, world will not be saved")
		return nil
	}
	st, err := storage.NewStorage(func() (storagecommon.WorldStorage, error) {
		return storage.OpenBackend(cfg)
	}, queue)
	if err != nil {
		gwlog.Fatalf("Storage engine is not ready: %s", err)
	}
	return st
}

// blockTypesFromConfig returns the configured block types, or one ground block if none is configured
func blockTypesFromConfig(blocks []*config.BlockConfig) []*world.BlockProperties {
	if len(blocks) == 0 {
		blocks = []*config.BlockConfig{{ID: 1, Name: "ground", Material: 1, Solid: true}}
	}
	bps := make([]*world.BlockProperties, len(blocks))
	for i, b := range blocks {
		bps[i] = world.NewBlockProperties(b.ID, map[string]interface{}{
			world.BLOCK_PROP_NAME:     b.Name,
			world.BLOCK_PROP_MATERIAL: b.Material,
			world.BLOCK_PROP_SOLID:    b.Solid,
			world.BLOCK_PROP_LIGHT:    b.Light,
		})
	}
	return bps
}

func setupSignals() {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating world service ...")
				gwvar.IsTerminating.Set(true)
				worldService.terminating.Store(true)
				worldService.terminated.Wait()
				gwlog.Infof("World service terminated gracefully.")
				os.Exit(0)
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}

// run is the main loop of the service: timers and posted callbacks all run here
func (ws *WorldService) run(tickInterval time.Duration, saveInterval time.Duration) {
	if saveInterval > 0 {
		timer.AddTimer(saveInterval, ws.saveEntities)
	}
	timer.AddTimer(time.Minute, func() {
		gwlog.Infof("%s: %d entities, %d chunks cached, %d chunk requests pending",
			ws, ws.entities.Len(), len(ws.chunks), ws.pendingChunks.len())
	})

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		if ws.terminating.Load() {
			ws.doTerminate()
			return
		}
		timer.Tick()
		ws.queue.Tick()
	}
}

// doTerminate saves the world and waits for storage to finish
func (ws *WorldService) doTerminate() {
	async.Shutdown()
	ws.queue.Tick()
	if ws.storage != nil {
		ws.saveEntities()
		synced := false
		ws.storage.Sync(func() {
			synced = true
		})
		deadline := time.Now().Add(_TERMINATE_SAVE_TIMEOUT)
		for !synced && time.Now().Before(deadline) {
			time.Sleep(consts.SERVICE_TICK_INTERVAL)
			ws.queue.Tick()
		}
		if !synced {
			gwlog.Errorf("%s: storage did not finish saving in %s", ws, _TERMINATE_SAVE_TIMEOUT)
		}
		ws.storage.Shutdown()
	}
	ws.world.Dispose()
	ws.terminated.Signal()
}
