package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bpchanges/bpchanges/internal/commands"
	"github.com/bpchanges/bpchanges/pkg/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := commands.NewPostChangesCmd().ExecuteContext(ctx); err != nil {
		output.New(nil, nil).Error("%v", err)
		stop()
		os.Exit(1)
	}
	stop()
}
