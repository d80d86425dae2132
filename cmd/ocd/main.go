// Command ocd is the OpenClaw desktop companion.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tessro/ocd/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
