package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vesta/internal/log"

	_ "modernc.org/sqlite"
)

// SQLitePort stores each key as one row of the kv table.
type SQLitePort struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLitePort(dbPath string, logger *log.Logger) (*SQLitePort, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; Flush writes keys concurrently.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("SQLite storage ready", "path", dbPath, "schema_version", version)
	return &SQLitePort{db: db, logger: logger}, nil
}

func (p *SQLitePort) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Read implements Port
func (p *SQLitePort) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Write implements Port
func (p *SQLitePort) Write(ctx context.Context, key string, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO kv(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	p.logger.DebugContext(ctx, "Key written", log.FieldKey, key, log.FieldBytes, len(data))
	return nil
}

// Remove implements Port
func (p *SQLitePort) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	p.logger.DebugContext(ctx, "Key removed", log.FieldKey, key)
	return nil
}
