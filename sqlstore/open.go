package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Config describes a database connection.
type Config struct {
	// Driver is "sqlite3" or "pgx".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// DSN is passed to sql.Open unchanged.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// TablePrefix is prepended to every table name.
	TablePrefix     string        `mapstructure:"table_prefix" yaml:"table_prefix"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// DefaultConfig is an in-memory SQLite database.
func DefaultConfig() Config {
	return Config{Driver: "sqlite3", DSN: "file::memory:?cache=shared"}
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Open opens and pings the database described by cfg.
func Open(ctx context.Context, cfg Config) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(dialect.Name(), cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	// Every connection to an in-memory SQLite database is a new database.
	if _, isSQLite := dialect.(SQLite); isSQLite && isMemoryDSN(cfg.DSN) {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}
	return db, dialect, nil
}
