package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dataspace-k8s/dsctl/internal/cli"
	"github.com/dataspace-k8s/dsctl/internal/logging"
)

// main is the entry point for the dsctl CLI binary. An operator interrupt
// cancels the context and aborts the running pipeline at its next
// suspension point; no partial-state cleanup is attempted.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(ctx, os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
