package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/app"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.BuildRoot().ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
