package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const (
	_MODULE_PATH   = "github.com/xiaonanln/worldsync"
	_SERVER_BINARY = "worldsync-server"
	_CLIENT_BINARY = "worldsync-client"
)

type _Env struct {
	WorkspaceRoot string
}

func (env *_Env) binDir() string {
	return filepath.Join(env.WorkspaceRoot, "bin")
}

func (env *_Env) serverExecutive() string {
	return filepath.Join(env.binDir(), _SERVER_BINARY+BinaryExtension)
}

var env _Env

// detectWorkspaceRoot finds the module root by walking up from the working directory
func detectWorkspaceRoot() {
	dir, err := os.Getwd()
	checkErrorOrQuit(err, "get working directory failed")
	for {
		if isWorkspaceRoot(dir) {
			env.WorkspaceRoot = dir
			showMsg("worldsync directory found: %s", dir)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			showMsgAndQuit("worldsync directory is not detected, run worldsync inside the module")
		}
		dir = parent
	}
}

func isWorkspaceRoot(dir string) bool {
	f, err := os.Open(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module ")) == _MODULE_PATH
		}
	}
	return false
}

func isexists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		panic(err)
	}
	return true
}
