// Package opmon records latency statistics of named operations
package opmon

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
)

var (
	operationAllocPool = sync.Pool{
		New: func() interface{} {
			return &Operation{}
		},
	}

	monitor = newMonitor()
)

func init() {
	if consts.OPMON_DUMP_INTERVAL > 0 {
		StartDumping(consts.OPMON_DUMP_INTERVAL)
	}
}

// Stat is the statistic of one operation name
type Stat struct {
	Name  string
	Count uint64
	Total time.Duration
	Max   time.Duration
}

// Avg returns the average duration
func (s Stat) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

type _Monitor struct {
	sync.Mutex
	stats map[string]*Stat
}

func newMonitor() *_Monitor {
	return &_Monitor{
		stats: map[string]*Stat{},
	}
}

func (monitor *_Monitor) record(opname string, duration time.Duration) {
	monitor.Lock()
	st := monitor.stats[opname]
	if st == nil {
		st = &Stat{Name: opname}
		monitor.stats[opname] = st
	}
	st.Count++
	st.Total += duration
	if duration > st.Max {
		st.Max = duration
	}
	monitor.Unlock()
}

func (monitor *_Monitor) snapshot(reset bool) []Stat {
	monitor.Lock()
	stats := make([]Stat, 0, len(monitor.stats))
	for _, st := range monitor.stats {
		stats = append(stats, *st)
	}
	if reset {
		monitor.stats = map[string]*Stat{}
	}
	monitor.Unlock()

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// Snapshot returns the statistics recorded since the last Dump
func Snapshot() []Stat {
	return monitor.snapshot(false)
}

// Dump writes the statistics to out and clears them
func Dump(out io.Writer) {
	fmt.Fprint(out, "=====================================================================================\n")
	for _, st := range monitor.snapshot(true) {
		fmt.Fprintf(out, "%-30sx%-10d AVG %-10s MAX %-10s\n", st.Name, st.Count, st.Avg(), st.Max)
	}
}

// StartDumping dumps statistics to the log output periodically
func StartDumping(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			Dump(gwlog.GetOutput())
		}
	}()
}

// Operation is the type of operation to be monitored
type Operation struct {
	name      string
	startTime time.Time
}

// StartOperation creates a new operation
func StartOperation(operationName string) *Operation {
	op := operationAllocPool.Get().(*Operation)
	op.name = operationName
	op.startTime = time.Now()
	return op
}

// Finish finishes the operation and records the duration of operation
func (op *Operation) Finish(warnThreshold time.Duration) {
	takeTime := time.Since(op.startTime)
	monitor.record(op.name, takeTime)
	if takeTime >= warnThreshold {
		gwlog.Warnf("opmon: operation %s takes %s > %s", op.name, takeTime, warnThreshold)
	}
	operationAllocPool.Put(op)
}
