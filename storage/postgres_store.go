package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"ipo-checker/models"
	"ipo-checker/utils"
)

// notifyChannel carries the slot name after every write or clear.
const notifyChannel = "ipo_results"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		value JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Results(ctx context.Context) (models.ResultSet, error) {
	data, err := s.get(ctx, SlotResults)
	if err != nil {
		return nil, err
	}
	return decodeResults(data)
}

func (s *PostgresStore) PutResults(ctx context.Context, set models.ResultSet) error {
	data, err := encode(set)
	if err != nil {
		return err
	}
	return s.put(ctx, SlotResults, data)
}

func (s *PostgresStore) Queue(ctx context.Context) (models.Queue, bool, error) {
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

func (s *PostgresStore) PutQueue(ctx context.Context, q models.Queue) error {
	data, err := encode(q)
	if err != nil {
		return err
	}
	return s.put(ctx, SlotQueue, data)
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM slots WHERE name = ANY($1)`, []string{SlotResults, SlotQueue}); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, SlotResults); err != nil {
		return fmt.Errorf("notify clear: %w", err)
	}
	return tx.Commit(ctx)
}

// Watch holds one pooled connection in LISTEN until ctx is done.
func (s *PostgresStore) Watch(ctx context.Context, onChange func()) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{notifyChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		utils.Debug("postgres slot %s changed", n.Payload)
		onChange()
	}
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM slots WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", name, err)
	}
	return value, nil
}

func (s *PostgresStore) put(ctx context.Context, name string, data []byte) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
	INSERT INTO slots (name, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;
	`, name, string(data)); err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, name); err != nil {
		return fmt.Errorf("notify %s: %w", name, err)
	}
	return tx.Commit(ctx)
}
