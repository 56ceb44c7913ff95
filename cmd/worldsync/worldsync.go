// Command worldsync builds, starts, stops and inspects the world server
package main

import (
	"flag"
	"strings"
)

var args struct {
	configFile string
	verbose    bool
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path passed to the server")
	flag.BoolVar(&args.verbose, "v", false, "print error stacks")
	flag.Usage = func() {
		showMsg("usage: worldsync [-configfile file] [-v] build|start|stop|kill|status")
		flag.PrintDefaults()
	}
	flag.Parse()
}

func main() {
	parseArgs()
	cmds := flag.Args()
	showMsg("arguments: %s", strings.Join(cmds, " "))

	if len(cmds) != 1 {
		showUsageAndQuit("should specify one command")
	}

	detectWorkspaceRoot()

	switch cmd := cmds[0]; cmd {
	case "build":
		build()
	case "start":
		start()
	case "stop":
		stop(StopSignal)
	case "kill":
		stop(KillSignal)
	case "status":
		status()
	default:
		showUsageAndQuit("unknown command: %s", cmd)
	}
}
