// Package backend opens the repository implementation selected by STORE_BACKEND.
package backend

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"briefcase/internal/config"
	"briefcase/internal/database"
	"briefcase/internal/database/migration"
	"briefcase/internal/repository"
	"briefcase/internal/repository/memory"
	"briefcase/internal/repository/postgres"
	"briefcase/internal/seed"
)

// Backend bundles the repositories with the handle used for health checks.
type Backend struct {
	Documents repository.DocumentRepository
	Users     repository.UserRepository
	Pinger    interface {
		PingContext(ctx context.Context) error
	}
	close func() error
}

// Close releases the underlying connection pool, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the configured store. The postgres backend is migrated before use.
// The memory backend starts empty on every run, so it is seeded with the demo users.
func Open(ctx context.Context, cfg *config.AppConfig, log logrus.FieldLogger) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		store := memory.New()
		if err := seed.DemoUsers(ctx, store.Users(), log); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return &Backend{
			Documents: store.Documents(),
			Users:     store.Users(),
			Pinger:    store,
		}, nil
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return &Backend{
			Documents: postgres.NewDocumentPostgres(db),
			Users:     postgres.NewUserPostgres(db),
			Pinger:    db,
			close:     db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
