package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

const (
	_EXIT_FAILURE = 1
	_EXIT_USAGE   = 2
)

func showMsg(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "> "+format+"\n", a...)
}

// errorText formats err, with its stack if -v is set
func errorText(err error) string {
	if args.verbose {
		return fmt.Sprintf("! %+v", err)
	}
	return "! " + err.Error()
}

func quit(code int, err error) {
	fmt.Fprintln(os.Stderr, errorText(err))
	os.Exit(code)
}

func showUsageAndQuit(format string, a ...interface{}) {
	showMsg(format, a...)
	flag.Usage()
	os.Exit(_EXIT_USAGE)
}

func showMsgAndQuit(format string, a ...interface{}) {
	quit(_EXIT_FAILURE, errors.Errorf(format, a...))
}

func checkErrorOrQuit(err error, msg string) {
	if err != nil {
		quit(_EXIT_FAILURE, errors.Wrap(err, msg))
	}
}
