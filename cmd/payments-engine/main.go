package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LerianStudio/payments-engine/payments/cli"
	"github.com/LerianStudio/payments-engine/payments/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		config.Exitf("payments-engine: %v", err)
	}
}
