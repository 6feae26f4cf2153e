// Command api runs the ledger HTTP server.
//
// Configuration is read from config.yaml and the environment; see
// internal/config for the full list of settings.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/matekasse/matekasse-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
