// Package main provides abcctl, the ABC maintenance command line.
//
// Usage:
//
//	abcctl seed [--force]
//	abcctl classify --title "Dune" --author "Frank Herbert" --description "..."
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
