package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/storefront/internal/cli"
)

func main() {
	// Cancel on SIGINT or SIGTERM so long-running commands stop cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx, cli.Options{}, os.Args[1:]); err != nil {
		cli.Report(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
