//go:build windows

package main

import (
	"syscall"

	_ "github.com/go-ole/go-ole" // gopsutil queries processes through WMI on windows
)

const (
	// BinaryExtension extension used on windows
	BinaryExtension = ".exe"
	// StopSignal syscall used to stop server
	StopSignal = syscall.SIGKILL
	// KillSignal syscall used to kill server
	KillSignal = syscall.SIGKILL
)
