// Command seed creates the demo accounts used for local testing in PostgreSQL.
// The memory store seeds itself on startup, so running this against it is a no-op.
package main

import (
	"context"

	_ "github.com/joho/godotenv/autoload"

	"briefcase/internal/config"
	"briefcase/internal/logging"
	"briefcase/internal/repository/backend"
	"briefcase/internal/seed"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Log, cfg.Location())
	ctx := context.Background()

	if cfg.StoreBackend == config.StoreMemory {
		log.Info("memory store seeds demo users when the api starts; nothing to do")
		return
	}

	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer store.Close()

	if err := seed.DemoUsers(ctx, store.Users, log); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}
