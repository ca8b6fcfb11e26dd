package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mizanhq/mizan-backend/internal/app"
	"github.com/mizanhq/mizan-backend/internal/platform/shutdown"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := a.Start(); err != nil {
		a.Log.Error("startup failed", "error", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
	}
}
