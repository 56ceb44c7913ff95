package main

import (
	"os"
	"os/exec"
	"time"
)

const _START_TIMEOUT = 10 * time.Second

func start() {
	ss := detectServerStatus()
	if ss.IsRunning() {
		showServerStatus(ss)
		showMsgAndQuit("server is already running")
	}

	exe := env.serverExecutive()
	if !isexists(exe) {
		showMsgAndQuit("%s not found, run build first", exe)
	}

	cmdArgs := []string{"-d"}
	if args.configFile != "" {
		cmdArgs = append(cmdArgs, "-configfile", args.configFile)
	}
	showMsg("start server ...")
	cmd := exec.Command(exe, cmdArgs...)
	cmd.Dir = env.WorkspaceRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	checkErrorOrQuit(err, "start server failed")

	deadline := time.Now().Add(_START_TIMEOUT)
	for !detectServerStatus().IsRunning() {
		if time.Now().After(deadline) {
			showMsgAndQuit("server is not running after %s, check the server log", _START_TIMEOUT)
		}
		time.Sleep(time.Millisecond * 100)
	}
	status()
}
