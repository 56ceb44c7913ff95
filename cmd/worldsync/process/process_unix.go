//go:build !windows

package process

import "syscall"

func (p process) Signal(sig syscall.Signal) error {
	return p.Process.SendSignal(sig)
}
