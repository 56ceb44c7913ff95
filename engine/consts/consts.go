package consts

import "time"

// Tunable Options
const (
	// For Underlying Networking
	// MAX_PACKET_SIZE is the maximum size of one framed packet, including the size field
	MAX_PACKET_SIZE = 4 * 1024 * 1024
	// CONNECTION_WRITE_BUFFER_SIZE is the socket write buffer size for client/server connections
	CONNECTION_WRITE_BUFFER_SIZE = 1024 * 1024
	// CONNECTION_READ_BUFFER_SIZE is the socket read buffer size for client/server connections
	CONNECTION_READ_BUFFER_SIZE = 1024 * 1024
	// CONNECTION_SET_TCP_NO_DELAY = true sets connections to TcpNoDelay
	CONNECTION_SET_TCP_NO_DELAY = true
	// BUFFERED_READ_BUFFSIZE is the read buffer size of packet connections
	BUFFERED_READ_BUFFSIZE = 16384
	// BUFFERED_WRITE_BUFFSIZE is the write buffer size of packet connections
	BUFFERED_WRITE_BUFFSIZE = 16384
	// CONNECTION_SEND_QUEUE_SIZE is the max number of packets waiting to be sent on one connection
	CONNECTION_SEND_QUEUE_SIZE = 1024
	// KCP_DATA_SHARDS and KCP_PARITY_SHARDS configure KCP forward error correction
	KCP_DATA_SHARDS   = 10
	KCP_PARITY_SHARDS = 3

	// For Messages
	// DEFAULT_MESSAGE_EXPIRY is the expiry delay of messages which do not set one
	DEFAULT_MESSAGE_EXPIRY = time.Millisecond * 500

	// For World
	// CHUNK_SIZE is the number of tiles along one side of a chunk
	CHUNK_SIZE = 16

	// For Services
	// SERVICE_PACKET_QUEUE_SIZE is the max packet queue length for server and client services
	SERVICE_PACKET_QUEUE_SIZE = 10000
	// SERVICE_TICK_INTERVAL is the tick interval to tick timers in services
	SERVICE_TICK_INTERVAL = time.Millisecond * 10

	// For Storage
	// STORAGE_QUEUE_WARN_LEN is the storage operation queue length to start warning at
	STORAGE_QUEUE_WARN_LEN = 100
	// STORAGE_RETRY_INTERVAL is the wait before reconnecting a failed storage engine
	STORAGE_RETRY_INTERVAL = time.Second

	// For Async Jobs
	// ASYNC_JOB_QUEUE_MAXLEN is the max number of jobs waiting in one async job group
	ASYNC_JOB_QUEUE_MAXLEN = 10000

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = 0
)

// Debug Options
const (
	// DEBUG_PACKETS prints packet send/recv debug logs
	DEBUG_PACKETS = false
	// DEBUG_LOADERS prints loader and provider chain debug logs
	DEBUG_LOADERS = false
	// DEBUG_SAVE_LOAD prints save & load debug logs
	DEBUG_SAVE_LOAD = false
	// DEBUG_CLIENTS prints clients operation debug logs
	DEBUG_CLIENTS = false
)

//  System level configurations
const (
	// DEBUG_MODE = true turns on debug mode
	DEBUG_MODE = false
)
