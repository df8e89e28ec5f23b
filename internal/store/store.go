package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Keys of the three independent state blobs.
const (
	KeyHistory  = "crm-autosync-history"
	KeySettings = "crm-autosync-settings"
	KeyMetrics  = "crm-autosync-metrics"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = eris.New("store: key not found")

// Store persists opaque JSON blobs under string keys. Writes are
// last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// LoadJSON decodes the blob stored under key into v. It returns false with a
// nil error when the key is absent.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if eris.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, eris.Wrapf(err, "store: decode %s", key)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "store: encode %s", key)
	}
	return s.Put(ctx, key, data)
}
