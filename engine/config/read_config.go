package config

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
)

const (
	_DEFAULT_CONFIG_FILE      = "worldsync.ini"
	_DEFAULT_LISTEN_ADDR      = "0.0.0.0:14000"
	_DEFAULT_SERVER_ADDR      = "127.0.0.1:14000"
	_DEFAULT_LOG_LEVEL        = "debug"
	_DEFAULT_STORAGE_DB       = "worldsync"
	_DEFAULT_TICK_INTERVAL_MS = 10
	_DEFAULT_AOI_DISTANCE     = 100
	_DEFAULT_SAVE_INTERVAL    = time.Minute * 5
	_BLOCK_SECTION_PREFIX     = "block_"
)

var (
	configFilePath  = _DEFAULT_CONFIG_FILE
	worldSyncConfig *WorldSyncConfig
	configLock      sync.Mutex
)

// ServerConfig defines fields of server config
type ServerConfig struct {
	ListenAddr     string
	KCPListenAddr  string // KCP is not served if empty
	LogFile        string
	LogStderr      bool
	LogLevel       string
	HTTPAddr       string // http endpoints (debug, websocket) are not served if empty
	WorldSeed      int64
	TickIntervalMS int
	AOIDistance    float32
	SaveInterval   time.Duration // entities are only saved at shutdown if zero
}

// ClientConfig defines fields of client config
type ClientConfig struct {
	ServerAddr             string
	Transport              string // tcp, kcp or websocket (server_addr is the http_addr of the server)
	LogFile                string
	LogStderr              bool
	LogLevel               string
	ViewRadius             int
	PositionSyncIntervalMS int
	DefaultBlockMaterial   int
}

// StorageConfig defines fields of storage config
type StorageConfig struct {
	Type       string // Type of storage (filesystem, mongodb, redis, redis_cluster), storage is disabled if empty
	Directory  string // Directory of filesystem storage (filesystem)
	Url        string // Connection URL (mongodb, redis)
	DB         string // Database name (mongodb) or index (redis)
	StartNodes common.StringSet
}

// MessageConfig defines fields of message config
type MessageConfig struct {
	ExpiryDelay        time.Duration // negative if messages never expire
	DebugMessageID     bool
	CompressConnection bool // snappy compress connections, servers and clients must agree
}

// BlockConfig defines one block type
type BlockConfig struct {
	ID       common.BlockTypeID
	Material int
	Name     string
	Solid    bool
	Light    int
}

// WorldSyncConfig defines the total config file structure
type WorldSyncConfig struct {
	Server  ServerConfig
	Client  ClientConfig
	Storage StorageConfig
	Message MessageConfig
	Blocks  map[common.BlockTypeID]*BlockConfig
}

// SetConfigFile sets the config file path (worldsync.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of the config file
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config
func Get() *WorldSyncConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if worldSyncConfig == nil {
		worldSyncConfig = readWorldSyncConfig()
	}
	return worldSyncConfig
}

// Reload forces to reload the whole config
func Reload() *WorldSyncConfig {
	configLock.Lock()
	worldSyncConfig = nil
	configLock.Unlock()

	return Get()
}

// GetServer returns the server config
func GetServer() *ServerConfig {
	return &Get().Server
}

// GetClient returns the client config
func GetClient() *ClientConfig {
	return &Get().Client
}

// GetStorage returns the storage config
func GetStorage() *StorageConfig {
	return &Get().Storage
}

// GetMessage returns the message config
func GetMessage() *MessageConfig {
	return &Get().Message
}

// GetBlocks returns all block types sorted by ID
func GetBlocks() []*BlockConfig {
	cfg := Get()
	blocks := make([]*BlockConfig, 0, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].ID < blocks[j].ID
	})
	return blocks
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readWorldSyncConfig() *WorldSyncConfig {
	config := WorldSyncConfig{
		Blocks: map[common.BlockTypeID]*BlockConfig{},
	}
	gwlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")

	// sections are read even if missing, so defaults are always set
	readServerConfig(iniFile.Section("server"), &config.Server)
	readClientConfig(iniFile.Section("client"), &config.Client)
	readStorageConfig(iniFile.Section("storage"), &config.Storage)
	readMessageConfig(iniFile.Section("message"), &config.Message)

	for _, sec := range iniFile.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		secName := strings.ToLower(sec.Name())
		if secName == "server" || secName == "client" || secName == "storage" || secName == "message" {
			continue
		}

		if strings.HasPrefix(secName, _BLOCK_SECTION_PREFIX) {
			id, err := strconv.ParseUint(secName[len(_BLOCK_SECTION_PREFIX):], 10, 16)
			checkConfigError(err, fmt.Sprintf("invalid block section name: %s", secName))
			bc := readBlockConfig(sec, common.BlockTypeID(id))
			config.Blocks[bc.ID] = bc
		} else {
			gwlog.Errorf("unknown section: %s", secName)
		}
	}

	validateConfig(&config)
	return &config
}

func readServerConfig(sec *ini.Section, sc *ServerConfig) {
	sc.ListenAddr = _DEFAULT_LISTEN_ADDR
	sc.LogFile = "server.log"
	sc.LogStderr = true
	sc.LogLevel = _DEFAULT_LOG_LEVEL
	sc.TickIntervalMS = _DEFAULT_TICK_INTERVAL_MS
	sc.AOIDistance = _DEFAULT_AOI_DISTANCE
	sc.SaveInterval = _DEFAULT_SAVE_INTERVAL

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "listen_addr" {
			sc.ListenAddr = key.MustString(sc.ListenAddr)
		} else if name == "kcp_listen_addr" {
			sc.KCPListenAddr = key.MustString(sc.KCPListenAddr)
		} else if name == "log_file" {
			sc.LogFile = key.MustString(sc.LogFile)
		} else if name == "log_stderr" {
			sc.LogStderr = key.MustBool(sc.LogStderr)
		} else if name == "log_level" {
			sc.LogLevel = key.MustString(sc.LogLevel)
		} else if name == "http_addr" {
			sc.HTTPAddr = key.MustString(sc.HTTPAddr)
		} else if name == "world_seed" {
			sc.WorldSeed = key.MustInt64(sc.WorldSeed)
		} else if name == "tick_interval_ms" {
			sc.TickIntervalMS = key.MustInt(sc.TickIntervalMS)
		} else if name == "aoi_distance" {
			sc.AOIDistance = float32(key.MustFloat64(float64(sc.AOIDistance)))
		} else if name == "save_interval" {
			sc.SaveInterval = time.Second * time.Duration(key.MustInt(int(sc.SaveInterval/time.Second)))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readClientConfig(sec *ini.Section, cc *ClientConfig) {
	cc.ServerAddr = _DEFAULT_SERVER_ADDR
	cc.Transport = "tcp"
	cc.LogFile = "client.log"
	cc.LogStderr = true
	cc.LogLevel = _DEFAULT_LOG_LEVEL
	cc.ViewRadius = 2
	cc.PositionSyncIntervalMS = 100 // sync positions per 100ms by default

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "server_addr" {
			cc.ServerAddr = key.MustString(cc.ServerAddr)
		} else if name == "transport" {
			cc.Transport = strings.ToLower(key.MustString(cc.Transport))
		} else if name == "log_file" {
			cc.LogFile = key.MustString(cc.LogFile)
		} else if name == "log_stderr" {
			cc.LogStderr = key.MustBool(cc.LogStderr)
		} else if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else if name == "view_radius" {
			cc.ViewRadius = key.MustInt(cc.ViewRadius)
		} else if name == "position_sync_interval_ms" {
			cc.PositionSyncIntervalMS = key.MustInt(cc.PositionSyncIntervalMS)
		} else if name == "default_block_material" {
			cc.DefaultBlockMaterial = key.MustInt(cc.DefaultBlockMaterial)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readStorageConfig(sec *ini.Section, config *StorageConfig) {
	// storage is disabled unless type is set
	config.Type = ""
	config.Directory = "_world_storage"
	config.DB = ""
	config.Url = ""
	config.StartNodes = common.StringSet{}

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "directory" {
			config.Directory = key.MustString(config.Directory)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.DB == "" {
		if config.Type == "redis" {
			config.DB = "0"
		} else if config.Type == "mongodb" {
			config.DB = _DEFAULT_STORAGE_DB
		}
	}
}

func readMessageConfig(sec *ini.Section, mc *MessageConfig) {
	mc.ExpiryDelay = consts.DEFAULT_MESSAGE_EXPIRY

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "expiry_delay_ms" {
			ms := key.MustInt64(int64(consts.DEFAULT_MESSAGE_EXPIRY / time.Millisecond))
			if ms < 0 {
				mc.ExpiryDelay = -1
			} else {
				mc.ExpiryDelay = time.Duration(ms) * time.Millisecond
			}
		} else if name == "debug_message_id" {
			mc.DebugMessageID = key.MustBool(mc.DebugMessageID)
		} else if name == "compress_connection" {
			mc.CompressConnection = key.MustBool(mc.CompressConnection)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readBlockConfig(sec *ini.Section, id common.BlockTypeID) *BlockConfig {
	bc := &BlockConfig{
		ID:    id,
		Name:  sec.Name(),
		Solid: true,
	}
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "material" {
			bc.Material = key.MustInt(bc.Material)
		} else if name == "name" {
			bc.Name = key.MustString(bc.Name)
		} else if name == "solid" {
			bc.Solid = key.MustBool(bc.Solid)
		} else if name == "light" {
			bc.Light = key.MustInt(bc.Light)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
	return bc
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		gwlog.Panicf("read config error: %s", msg)
	}
}

func validateStorageConfig(config *StorageConfig) {
	if config.Type == "" {
		// storage not enabled, it's OK
	} else if config.Type == "filesystem" {
		// directory must be set
		if config.Directory == "" {
			gwlog.Panicf("directory is not set in %s storage config", config.Type)
		}
	} else if config.Type == "mongodb" {
		if config.Url == "" {
			gwlog.Panicf("url is not set in %s storage config", config.Type)
		}
	} else if config.Type == "redis" {
		if config.Url == "" {
			gwlog.Panicf("redis host is not set")
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			gwlog.Panic(errors.Wrap(err, "redis db must be integer"))
		}
	} else if config.Type == "redis_cluster" {
		if len(config.StartNodes) == 0 {
			gwlog.Panicf("must have at least 1 start_nodes for [storage].redis_cluster")
		}
		for s := range config.StartNodes {
			if s == "" {
				gwlog.Panicf("start_nodes must not be empty")
			}
		}
	} else {
		gwlog.Panicf("unknown storage type: %s", config.Type)
	}
}

func validateConfig(config *WorldSyncConfig) {
	if config.Server.ListenAddr == "" {
		gwlog.Panicf("listen_addr is not set in server config")
	}
	if config.Server.AOIDistance <= 0 {
		gwlog.Panicf("aoi_distance must be positive, not %v", config.Server.AOIDistance)
	}
	if config.Server.TickIntervalMS <= 0 {
		gwlog.Panicf("tick_interval_ms must be positive, not %d", config.Server.TickIntervalMS)
	}
	if config.Client.Transport != "tcp" && config.Client.Transport != "kcp" && config.Client.Transport != "websocket" {
		gwlog.Panicf("unknown client transport: %s", config.Client.Transport)
	}
	if config.Client.ViewRadius < 0 {
		gwlog.Panicf("view_radius must not be negative, not %d", config.Client.ViewRadius)
	}
	if config.Client.PositionSyncIntervalMS <= 0 {
		gwlog.Panicf("position_sync_interval_ms must be positive, not %d", config.Client.PositionSyncIntervalMS)
	}
	validateStorageConfig(&config.Storage)
}
