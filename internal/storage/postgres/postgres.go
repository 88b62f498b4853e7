// Package postgres implements the storage.Backend interface on PostgreSQL
// with PostGIS, wrapping the queued GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/internal/database"
	gormstorage "github.com/wopr-sim/wopr/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
// When DB is nil, Init connects using Config.
type Dependencies struct {
	DB     *gorm.DB
	Config config.DBConfig
	Logger *slog.Logger
}

// Backend embeds the GORM backend once a connection is established.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects if needed, installs PostGIS, then migrates and starts the
// embedded writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := b.connect()
		if err != nil {
			return err
		}
		b.deps.DB = db
	}

	if err := database.EnsurePostGIS(b.deps.DB); err != nil {
		return err
	}
	if b.deps.DB.Name() == "postgres" {
		b.deps.Logger.Info("PostGIS extension ready")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:     b.deps.DB,
		Logger: b.deps.Logger,
	})
	return b.Backend.Init()
}

func (b *Backend) connect() (*gorm.DB, error) {
	db, err := database.OpenPostgres(b.deps.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	b.deps.Logger.Info("Connected to database", "host", b.deps.Config.Host, "database", b.deps.Config.Database)
	return db, nil
}

// Close stops the embedded writer. It is safe to call before Init.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
