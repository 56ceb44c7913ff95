//go:build !windows

package main

import "syscall"

const (
	// BinaryExtension extension used on unix
	BinaryExtension = ""
	// StopSignal syscall used to stop server, the server saves the world before quitting
	StopSignal = syscall.SIGTERM
	// KillSignal syscall used to kill server
	KillSignal = syscall.SIGKILL
)
