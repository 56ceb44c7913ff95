package binutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/shirou/gopsutil/process"
	"github.com/xiaonanln/worldsync/engine/gwlog"
)

func TestSetupGWLog(t *testing.T) {
	defer gwlog.SetOutput(os.Stderr)
	logFile := filepath.Join(t.TempDir(), "test.log")
	SetupGWLog("binutil_test", "info", logFile, false)
	gwlog.Infof("hello %s", "log file")
	gwlog.Debugf("SHOULD NOT SEE THIS")
	gwlog.Sync()

	data, err := os.ReadFile(logFile)
	assert.Equal(t, nil, err)
	assert.T(t, strings.Contains(string(data), "hello log file"))
	assert.T(t, !strings.Contains(string(data), "SHOULD NOT SEE THIS"))
	gwlog.SetLevel(gwlog.DebugLevel)
}

func TestSetupHTTPServerDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	gwlog.SetOutput(buf)
	defer gwlog.SetOutput(os.Stderr)
	SetupHTTPServer("", nil)
	assert.T(t, strings.Contains(buf.String(), "pprof server not enabled"))
}

func TestSampleProcessStat(t *testing.T) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		t.Skipf("process stats not supported: %s", err)
	}
	stat, err := SampleProcessStat(context.Background(), p)
	if err != nil {
		t.Skipf("process stats not supported: %s", err)
	}
	assert.T(t, stat.RSS > 0)
	assert.T(t, stat.NumThreads > 0)
}
