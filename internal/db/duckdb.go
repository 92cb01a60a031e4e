// Package db opens the DuckDB database backing the feature snapshot.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration. An empty DataDir keeps the
// database in memory, which is the default: the snapshot only lives as
// long as the process.
type Config struct {
	DataDir string
	DBName  string
}

// sandbox keeps queries away from the local filesystem and the network and
// stops them from re-enabling either.
const sandbox = "?enable_external_access=false&lock_configuration=true"

// Open opens a DuckDB database and checks that it answers.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "quake"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn+sandbox)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return conn, nil
}
