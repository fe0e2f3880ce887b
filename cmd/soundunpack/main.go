package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"soundunpack/internal/procexec"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, err)
	}
	return exitCode(err)
}

// exitCode maps a command error to the process exit status. A fatal tool
// failure propagates the tool's own code; an interrupt is a normal exit.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	if exitErr, ok := procexec.AsFatal(err); ok && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}
