package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// exitInterrupted is the shell convention for a SIGINT exit.
const exitInterrupted = 130

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "radiocorpus: interrupted; completed units are kept in the ledger")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "radiocorpus: %v\n", err)
		return 1
	}
}
