package main

import (
	"fmt"
	"log/slog"

	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/internal/storage"
	"github.com/wopr-sim/wopr/internal/storage/memory"
	pgstorage "github.com/wopr-sim/wopr/internal/storage/postgres"
	sqlitestorage "github.com/wopr-sim/wopr/internal/storage/sqlite"
	wsstorage "github.com/wopr-sim/wopr/internal/storage/websocket"
)

// initStorage creates and initializes the configured backend. A Postgres
// server that cannot be reached falls back to SQLite.
func initStorage(cfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	backend, err := createStorageBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		if cfg.Type != "postgres" {
			return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
		}
		logger.Error("Failed to connect to Postgres DB, trying SQLite", "error", err)
		_ = backend.Close()

		cfg.Type = "sqlite"
		return initStorage(cfg, logger)
	}
	return backend, nil
}

func createStorageBackend(cfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Config: config.GetDBConfig(),
			Logger: logger,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "dumpPath", cfg.SQLite.DumpPath)
		return backend, nil

	case "websocket":
		logger.Info("WebSocket storage backend initialized", "url", cfg.Stream.URL)
		return wsstorage.New(wsstorage.Config{
			URL:    cfg.Stream.URL,
			Secret: cfg.Stream.Secret,
		}, logger), nil

	case "memory", "":
		logger.Info("Memory storage backend initialized", "outputDir", cfg.Memory.OutputDir)
		return memory.New(cfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
