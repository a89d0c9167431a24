package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthurdotwork/livechat/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Root().ExecuteContext(ctx); err != nil {
		slog.ErrorContext(ctx, "error running command", "error", err)
		cancel()
		os.Exit(1)
	}
}
