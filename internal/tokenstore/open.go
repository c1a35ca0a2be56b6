package tokenstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wordtales/internal/config"
)

// Open builds the backend selected by cfg
func Open(ctx context.Context, cfg config.TokenStoreConfig, logger *slog.Logger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case config.TokenStoreFile, "":
		store, err = NewFileStore(cfg.Path, cfg.EncryptionSecret)
	case config.TokenStoreSQLite:
		store, err = NewSQLiteStore(cfg.Path)
	case config.TokenStoreRedis:
		store, err = NewRedisStore(ctx, cfg.DSN, cfg.KeyPrefix)
	case config.TokenStorePostgres:
		store, err = NewPostgresStore(ctx, cfg.DSN, cfg.KeyPrefix)
	case config.TokenStoreMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTokenStore, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s token store: %w", cfg.Backend, err)
	}

	if cfg.EncryptionSecret != "" && cfg.Backend != config.TokenStoreFile && cfg.Backend != "" {
		logger.Warn("TOKEN_ENCRYPTION_SECRET only applies to the file token store", "backend", cfg.Backend)
	}
	logger.Info("token store opened", "backend", cfg.Backend)

	return store, nil
}
