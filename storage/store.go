package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ipo-checker/config"
	"ipo-checker/models"
)

// Slot names shared by every backend.
const (
	SlotResults = "results"
	SlotQueue   = "queue"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Store persists the result set and the session queue. Each write replaces
// a whole slot, so readers only ever see complete snapshots.
type Store interface {
	Results(ctx context.Context) (models.ResultSet, error)
	PutResults(ctx context.Context, set models.ResultSet) error
	Queue(ctx context.Context) (models.Queue, bool, error)
	PutQueue(ctx context.Context, q models.Queue) error
	// Clear removes the results and the session queue.
	Clear(ctx context.Context) error
	// Watch calls onChange after the stored slots change, until ctx is done.
	Watch(ctx context.Context, onChange func()) error
	Close() error
}

// Open builds the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverFile:
		return NewFileStore(cfg.Storage.Path)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Storage.Path)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}
}

func decodeResults(data []byte) (models.ResultSet, error) {
	if len(data) == 0 {
		return models.ResultSet{}, nil
	}
	var set models.ResultSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if set == nil {
		set = models.ResultSet{}
	}
	return set, nil
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode slot: %w", err)
	}
	return data, nil
}
