// Package backend picks the store.Store implementation named by store.driver.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"taskvault/internal/config"
	"taskvault/internal/store"
	"taskvault/internal/store/filestore"
	"taskvault/internal/store/mongostore"
	"taskvault/internal/store/sqlstore"
	"taskvault/pkg/db"
	"taskvault/pkg/encrypt"
)

// Open connects to the configured backend. Schema setup is left to Store.Init.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	logger = logger.With(zap.String("driver", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return sqlstore.OpenPostgres(ctx, db.DSN(cfg.DB), logger)
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(cfg.Store.SQLitePath, logger)
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, logger)
	case config.DriverFile:
		codec, err := encrypt.NewCodec(cfg.Store.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("file store key: %w", err)
		}
		return filestore.New(cfg.Store.FilePath, codec, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Opener adapts Open for store.NewHandle.
func Opener(cfg *config.Config, logger *zap.Logger) store.Opener {
	return func(ctx context.Context) (store.Store, error) {
		st, err := Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", zap.String("driver", cfg.Store.Driver))
		return st, nil
	}
}
