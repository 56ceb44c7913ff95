package main

import (
	"syscall"
	"time"

	"github.com/xiaonanln/worldsync/cmd/worldsync/process"
)

func stop(signal syscall.Signal) {
	ss := detectServerStatus()
	showServerStatus(ss)
	if !ss.IsRunning() {
		showMsgAndQuit("no server is running currently")
	}

	for _, proc := range ss.ServerProcs {
		stopProc(proc, signal)
	}
}

// stopProc signals the process and waits for it to quit, the server saves the world before quitting
func stopProc(proc process.Process, signal syscall.Signal) {
	showMsg("stop process %s pid=%d", proc.Executable(), proc.Pid())
	err := proc.Signal(signal)
	checkErrorOrQuit(err, "stop process failed")

	for proc.IsRunning() {
		time.Sleep(time.Millisecond * 100)
	}
}
