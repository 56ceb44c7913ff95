package main

import (
	"os"
	"os/exec"
	"path/filepath"
)

func build() {
	buildBinary(_SERVER_BINARY)
	buildBinary(_CLIENT_BINARY)
}

func buildBinary(name string) {
	output := filepath.Join(env.binDir(), name+BinaryExtension)
	showMsg("go build %s ...", name)
	cmd := exec.Command("go", "build", "-o", output, "./cmd/"+name)
	cmd.Dir = env.WorkspaceRoot
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout
	cmd.Stdin = os.Stdin
	err := cmd.Run()
	checkErrorOrQuit(err, "build "+name+" failed")
}
