package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/neurobridge-frameworks/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Log.Info("Server listening", "port", a.Cfg.Port)
	err = a.Run(ctx, ":"+a.Cfg.Port)
	if err != nil {
		a.Log.Error("Server failed", "error", err)
	}
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}
