// Package database opens the GORM connections used by the recording backends.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/wopr-sim/wopr/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN is the shared in-memory SQLite database.
const MemoryDSN = "file::memory:?cache=shared"

// SchemaVersion is stamped into SQLite files as PRAGMA user_version.
const SchemaVersion = 1

// sqlitePragmas tune SQLite for a single writer that can lose the tail of
// a game on crash.
var sqlitePragmas = []string{
	fmt.Sprintf("PRAGMA user_version = %d;", SchemaVersion),
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -16000;",
	"PRAGMA temp_store = MEMORY;",
}

func gormConfig(batch int) *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batch,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// PostgresDSN builds a libpq connection string.
func PostgresDSN(cfg config.DBConfig) string {
	parts := []string{
		"host=" + cfg.Host,
		"port=" + cfg.Port,
		"user=" + cfg.Username,
		"password=" + cfg.Password,
		"dbname=" + cfg.Database,
		"sslmode=disable",
	}
	return strings.Join(parts, " ")
}

// OpenPostgres connects to Postgres. The caller pings and sizes the pool.
func OpenPostgres(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), gormConfig(1000))
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	return db, nil
}

// OpenSQLite opens the SQLite database at dsn, or the shared in-memory
// database when dsn is empty, and applies the pragmas.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	cfg := gormConfig(500)
	cfg.PrepareStmt = true

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// UserVersion reads the schema stamp of a SQLite database.
func UserVersion(db *gorm.DB) (int, error) {
	var v int
	if err := db.Raw("PRAGMA user_version;").Scan(&v).Error; err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// EnsurePostGIS installs the PostGIS extension on Postgres. Other
// dialects are left alone.
func EnsurePostGIS(db *gorm.DB) error {
	if db.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
		return fmt.Errorf("failed to create PostGIS extension: %w", err)
	}
	return nil
}

// DumpToFile copies a SQLite database to path with VACUUM INTO. The copy
// is written beside path and renamed over it, so readers never see a
// partial file.
func DumpToFile(db *gorm.DB, path string) error {
	if path == "" {
		return fmt.Errorf("sqlite file path not set")
	}
	if strings.Contains(path, "'") {
		return fmt.Errorf("invalid sqlite file path %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	tmp := path + ".partial"
	_ = os.Remove(tmp)
	if err := db.Exec("VACUUM INTO 'file:" + tmp + "';").Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
