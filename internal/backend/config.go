package backend

import (
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

// FromAppConfig converts application config to backend config
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		Type:         BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		DatabaseURL:  cfg.DatabaseURL,
		PGMaxConns:   cfg.PGMaxConns,
	}
}

// Migrate applies pending schema migrations for SQL backends. The memory
// backend has no schema and is a no-op.
func Migrate(config Config) error {
	switch config.Type {
	case SQLiteBackend:
		return storage.RunSQLiteMigrations(config.SQLiteDBPath)
	case PostgresBackend:
		return storage.RunPostgresMigrations(config.DatabaseURL)
	case MemoryBackend:
		return nil
	default:
		return fmt.Errorf("invalid backend type: %s", config.Type)
	}
}
