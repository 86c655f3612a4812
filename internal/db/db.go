package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// OpenDB opens and migrates the timeline database at path. File databases
// get their directory created and run in WAL mode. ":memory:" is held on a
// single connection, otherwise each pooled connection would see its own
// empty database.
func OpenDB(path string) (*sql.DB, error) {
	dsn, err := dataSource(path)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if path == memoryPath {
		conn.SetMaxOpenConns(1)
	}
	if err := prepare(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func dataSource(path string) (string, error) {
	if path == memoryPath {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating db directory: %w", err)
	}
	// DSN pragmas are applied to every new pooled connection.
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}

func prepare(conn *sql.DB) error {
	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode = WAL", "setting WAL mode"},
		{"PRAGMA foreign_keys = ON", "enabling foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil {
			return fmt.Errorf("%s: %w", p.what, err)
		}
	}
	if err := Migrate(conn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
