package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ipo-checker/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create storage dir: %w", err)
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Results(ctx context.Context) (models.ResultSet, error) {
	data, err := s.get(ctx, SlotResults)
	if err != nil {
		return nil, err
	}
	return decodeResults(data)
}

func (s *SQLiteStore) PutResults(ctx context.Context, set models.ResultSet) error {
	data, err := encode(set)
	if err != nil {
		return err
	}
	return s.put(ctx, SlotResults, data)
}

func (s *SQLiteStore) Queue(ctx context.Context) (models.Queue, bool, error) {
	data, err := s.get(ctx, SlotQueue)
	if err != nil || data == nil {
		return models.Queue{}, false, err
	}
	var q models.Queue
	if err := json.Unmarshal(data, &q); err != nil {
		return models.Queue{}, false, fmt.Errorf("decode queue: %w", err)
	}
	return q, true, nil
}

func (s *SQLiteStore) PutQueue(ctx context.Context, q models.Queue) error {
	data, err := encode(q)
	if err != nil {
		return err
	}
	return s.put(ctx, SlotQueue, data)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name IN (?, ?)`, SlotResults, SlotQueue); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}
	return nil
}

// Watch follows the database file and its journal through fsnotify.
func (s *SQLiteStore) Watch(ctx context.Context, onChange func()) error {
	base := filepath.Base(s.path)
	return watchDir(ctx, filepath.Dir(s.path), func(name string) bool {
		return strings.HasPrefix(name, base)
	}, onChange)
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, name string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", name, err)
	}
	return []byte(value), nil
}

func (s *SQLiteStore) put(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	return nil
}
