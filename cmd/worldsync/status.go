package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xiaonanln/worldsync/cmd/worldsync/process"
)

// ServerStatus represents the processes of a running server
type ServerStatus struct {
	ServerProcs []process.Process
	ClientProcs []process.Process
}

// IsRunning returns if a server is running
func (ss *ServerStatus) IsRunning() bool {
	return len(ss.ServerProcs) > 0
}

func detectServerStatus() *ServerStatus {
	ss := &ServerStatus{}
	procs, err := process.Processes()
	checkErrorOrQuit(err, "list processes failed")
	for _, proc := range procs {
		path, err := proc.Path()
		if err != nil {
			continue
		}

		relpath, err := filepath.Rel(env.binDir(), path)
		if err != nil || strings.HasPrefix(relpath, "..") {
			continue
		}

		switch relpath {
		case _SERVER_BINARY + BinaryExtension:
			ss.ServerProcs = append(ss.ServerProcs, proc)
		case _CLIENT_BINARY + BinaryExtension:
			ss.ClientProcs = append(ss.ClientProcs, proc)
		}
	}
	return ss
}

func status() {
	ss := detectServerStatus()
	showServerStatus(ss)
}

func showServerStatus(ss *ServerStatus) {
	showMsg("%d server running, %d clients running", len(ss.ServerProcs), len(ss.ClientProcs))

	var listProcs []process.Process
	listProcs = append(listProcs, ss.ServerProcs...)
	listProcs = append(listProcs, ss.ClientProcs...)
	for _, proc := range listProcs {
		cmdlineSlice, err := proc.CmdlineSlice()
		var cmdline string
		if err == nil {
			cmdline = strings.Join(cmdlineSlice, " ")
		} else {
			cmdline = fmt.Sprintf("get cmdline failed: %v", err)
		}

		showMsg("\t%-10d%-20s%s", proc.Pid(), proc.Executable(), cmdline)
	}
}
