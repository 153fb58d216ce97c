package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"ipo-checker/models"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps each slot in its own JSON file next to path. Writes go to
// a temp file that is renamed over the slot, under a cross-process lock.
type FileStore struct {
	resultsPath string
	queuePath   string
	lock        *flock.Flock
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create storage dir: %w", err)
	}

	ext := filepath.Ext(path)
	return &FileStore{
		resultsPath: path,
		queuePath:   strings.TrimSuffix(path, ext) + ".queue" + ext,
		lock:        flock.New(path + ".lock"),
	}, nil
}

func (s *FileStore) Results(ctx context.Context) (models.ResultSet, error) {
	data, err := readSlot(s.resultsPath)
	if err != nil {
		return nil, err
	}
	return decodeResults(data)
}

func (s *FileStore) PutResults(ctx context.Context, set models.ResultSet) error {
	data, err := encode(set)
	if err != nil {
		return err
	}
	return s.write(ctx, s.resultsPath, data)
}

func (s *FileStore) Queue(ctx context.Context) (models.Queue, bool, error) {
	data, err := readSlot(s.queuePath)
	if err != nil || len(data) == 0 {
		return models.Queue{}, false, err
	}
	var q models.Queue
	if err := json.Unmarshal(data, &q); err != nil {
		return models.Queue{}, false, fmt.Errorf("decode queue: %w", err)
	}
	return q, true, nil
}

func (s *FileStore) PutQueue(ctx context.Context, q models.Queue) error {
	data, err := encode(q)
	if err != nil {
		return err
	}
	return s.write(ctx, s.queuePath, data)
}

func (s *FileStore) Clear(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		for _, p := range []string{s.resultsPath, s.queuePath} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
		return nil
	})
}

func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	results := filepath.Base(s.resultsPath)
	queue := filepath.Base(s.queuePath)
	return watchDir(ctx, filepath.Dir(s.resultsPath), func(name string) bool {
		return name == results || name == queue
	}, onChange)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) write(ctx context.Context, path string, data []byte) error {
	return s.withLock(ctx, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
		if err != nil {
			return fmt.Errorf("could not create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("sync %s: %w", path, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("replace %s: %w", path, err)
		}
		return nil
	})
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("acquire lock: not acquired")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

func readSlot(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
