// Package main provides bricks, the noob-bricks collection manager.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/noobbricks/noob-bricks/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh))
}
