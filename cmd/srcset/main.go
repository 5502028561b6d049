package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// exitInterrupted follows the shell convention for SIGINT.
const exitInterrupted = 130

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "srcset: interrupted; manifest left unchanged")
			os.Exit(exitInterrupted)
		}
		fmt.Fprintf(os.Stderr, "srcset: %v\n", err)
		os.Exit(1)
	}
}
