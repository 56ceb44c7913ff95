package binutil

import (
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
	"golang.org/x/net/websocket"
)

// SetupHTTPServer starts the HTTP server for go tool pprof, expvar and websockets, nothing is served if addr is empty
func SetupHTTPServer(addr string, wsHandler func(ws *websocket.Conn)) {
	if addr == "" {
		// pprof not enabled
		gwlog.Infof("pprof server not enabled")
		return
	}

	gwlog.Infof("http server listening on %s", addr)
	gwlog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", addr)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/heap", addr)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/profile", addr)
	gwlog.Infof("expvar http://%s/debug/vars", addr)

	if wsHandler != nil {
		http.Handle(netutil.WebSocketPath, websocket.Handler(wsHandler))
	}

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			gwlog.Errorf("http server failed: %s", err)
		}
	}()
}

// SetupGWLog setup the log system of the component
func SetupGWLog(component string, logLevel string, logFile string, logStderr bool) {
	gwlog.SetSource(component)
	gwlog.Infof("Set log level to %s", logLevel)
	gwlog.SetLevel(gwlog.StringToLevel(logLevel))

	outputWriters := make([]io.Writer, 0, 2)
	if logFile != "" {
		logFileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 100,
			MaxAge:     30, //days
			Compress:   true,
		}

		logFileWriter.Rotate() // rotate immediately
		outputWriters = append(outputWriters, logFileWriter)
	}

	if logStderr {
		outputWriters = append(outputWriters, os.Stderr)
	}

	if len(outputWriters) == 0 {
		gwlog.SetOutput(io.Discard)
	} else if len(outputWriters) == 1 {
		gwlog.SetOutput(outputWriters[0])
	} else {
		gwlog.SetOutput(io.MultiWriter(outputWriters...))
	}
}
