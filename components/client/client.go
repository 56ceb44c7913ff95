// Package client runs headless world clients which keep the world around their players in sync
package client

import (
	"flag"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaonanln/goTimer"
	"github.com/xiaonanln/worldsync/engine/binutil"
	"github.com/xiaonanln/worldsync/engine/config"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"github.com/xiaonanln/worldsync/engine/post"
	"github.com/xiaonanln/worldsync/engine/proto"
)

const _RECONNECT_INTERVAL = time.Second

var args struct {
	configFile string
	logLevel   string
	numBots    int
	walk       bool
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.IntVar(&args.numBots, "n", 1, "number of clients")
	flag.BoolVar(&args.walk, "walk", true, "clients wander around")
	flag.Parse()
}

// Start connects the clients and runs them until interrupted
func Start() {
	rand.Seed(time.Now().UnixNano())
	parseArgs()
	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	clientConfig := config.GetClient()
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = clientConfig.LogLevel
	}
	binutil.SetupGWLog("client", logLevel, clientConfig.LogFile, clientConfig.LogStderr)
	gwlog.Infof("Read client config: \n%s\n", config.DumpPretty(clientConfig))

	queue := post.NewQueue()
	msgConfig := config.GetMessage()
	bots := make([]*ClientBot, 0, args.numBots)
	for i := 0; i < args.numBots; i++ {
		enc := proto.NewEncoder(proto.NewIdentityIssuer(), msgConfig.DebugMessageID)
		enc.DefaultExpiry = msgConfig.ExpiryDelay
		bot, err := NewClientBot(i+1, connect(clientConfig), BotOptions{
			Encoder:              enc,
			CompressConnection:   msgConfig.CompressConnection,
			Queue:                queue,
			ViewRadius:           int32(clientConfig.ViewRadius),
			DefaultBlockMaterial: clientConfig.DefaultBlockMaterial,
			Walk:                 args.walk,
		})
		if err != nil {
			gwlog.Fatalf("create client %d failed: %+v", i+1, err)
		}
		gwlog.Infof("%s is running ...", bot)
		go func() {
			if err := bot.Serve(); err != nil {
				gwlog.Errorf("%s: %v", bot, err)
			}
			gwlog.Warnf("%s disconnected", bot)
		}()
		bots = append(bots, bot)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	run(bots, queue, time.Duration(clientConfig.PositionSyncIntervalMS)*time.Millisecond, signalChan)
}

// connect retries until the server is connected
func connect(cfg *config.ClientConfig) net.Conn {
	for {
		var conn net.Conn
		var err error
		switch cfg.Transport {
		case "kcp":
			conn, err = netutil.ConnectKCP(cfg.ServerAddr)
		case "websocket":
			conn, err = netutil.ConnectWebSocket(cfg.ServerAddr)
		default:
			conn, err = netutil.ConnectTCP(cfg.ServerAddr)
		}
		if err == nil {
			gwlog.Infof("connected: %s", conn.RemoteAddr())
			return conn
		}
		gwlog.Errorf("Connect %s failed: %s", cfg.ServerAddr, err)
		time.Sleep(_RECONNECT_INTERVAL)
	}
}

// run ticks every bot on this goroutine until stop receives
func run(bots []*ClientBot, queue *post.Queue, syncInterval time.Duration, stop <-chan os.Signal) {
	timer.AddTimer(syncInterval, func() {
		now := time.Now()
		for _, bot := range bots {
			bot.tick(now)
		}
	})

	ticker := time.NewTicker(consts.SERVICE_TICK_INTERVAL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			timer.Tick()
			queue.Tick()
		case sig := <-stop:
			gwlog.Infof("%s received, closing %d clients", sig, len(bots))
			for _, bot := range bots {
				bot.Close()
			}
			return
		}
	}
}
