package storage

import (
	"errors"
	"fmt"

	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/keyring"
	"github.com/julianstephens/cadence/internal/storage/postgres"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

// ErrEmbeddedCredentials is returned when a postgres DSN carries a password.
var ErrEmbeddedCredentials = errors.New("postgres connection strings with embedded passwords are not allowed; store it with 'cadence keyring set' or use .pgpass")

// Open builds the provider selected by cfg. It does not call Init or Load.
func Open(cfg config.StorageConfig) (Provider, error) {
	switch cfg.Backend {
	case constants.BackendJSON:
		return NewJSONStore(cfg.Path), nil
	case constants.BackendSQLite:
		return sqlite.NewStore(cfg.Path), nil
	case constants.BackendMemory:
		return NewMemoryStore(), nil
	case constants.BackendPostgres:
		connStr, err := resolveConnectionString(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(connStr), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// resolveConnectionString prefers an explicit DSN and falls back to the OS
// keyring. Passwords are only accepted from the environment or the keyring.
func resolveConnectionString(cfg config.StorageConfig) (string, error) {
	if cfg.DSN != "" {
		if !cfg.DSNFromEnv && postgres.HasEmbeddedCredentials(cfg.DSN) {
			return "", ErrEmbeddedCredentials
		}
		return cfg.DSN, nil
	}

	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no postgres connection configured: set storage.dsn or CADENCE_DB_CONNECTION, or run 'cadence keyring set'")
		}
		return "", err
	}
	return connStr, nil
}
