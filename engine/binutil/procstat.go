package binutil

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/gwutils"
)

// ProcessStat is one sample of the resource usage of this process
type ProcessStat struct {
	CPUPercent float64
	RSS        uint64
	NumThreads int32
}

// SampleProcessStat samples the resource usage of this process
func SampleProcessStat(ctx context.Context, p *process.Process) (ProcessStat, error) {
	var stat ProcessStat
	var err error
	if stat.CPUPercent, err = p.CPUPercentWithContext(ctx); err != nil {
		return stat, err
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return stat, err
	}
	stat.RSS = mem.RSS
	if stat.NumThreads, err = p.NumThreadsWithContext(ctx); err != nil {
		return stat, err
	}
	return stat, nil
}

// StartProcessStats logs the resource usage of this process every interval until ctx is done
func StartProcessStats(ctx context.Context, interval time.Duration) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		gwlog.Errorf("procstat: can not find process: pid = %v: %s", pid, err)
		return
	}

	go gwutils.RunPanicless(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			stat, err := SampleProcessStat(ctx, p)
			if err != nil {
				gwlog.Warnf("procstat: sample failed: %s", err)
				continue
			}
			gwlog.Infof("procstat: cpu %.2f%%, rss %dKB, threads %d", stat.CPUPercent, stat.RSS/1024, stat.NumThreads)
		}
	})
}
