package main

import (
	"log/slog"

	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/engine"
	"github.com/sievemod/sieve/internal/llm"
	"github.com/sievemod/sieve/internal/notify"
	"github.com/sievemod/sieve/internal/storage"
)

// openStorage loads config and opens the migrated record store. The
// caller owns Close.
func openStorage() (*config.Config, *storage.SQLiteStorage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// buildEngine assembles the full moderation pipeline over an open store.
func buildEngine(cfg *config.Config, store *storage.SQLiteStorage) *engine.Engine {
	logger := slog.Default()
	gateway := llm.NewGateway(cfg.Providers, logger)
	dispatcher := notify.NewDispatcher(cfg.Notifications, store, logger)
	return engine.New(store, gateway, dispatcher, logger)
}
