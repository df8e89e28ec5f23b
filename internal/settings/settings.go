// Package settings persists user configuration merged over defaults.
package settings

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/store"
)

// Store holds the current settings and persists them under
// store.KeySettings. Persistence failures are logged and never returned.
type Store struct {
	st store.Store

	mu      sync.RWMutex
	current model.Settings
}

// New creates a settings Store reading defaults until Load is called.
func New(st store.Store) *Store {
	return &Store{st: st, current: model.DefaultSettings()}
}

// Load reads persisted settings merged over defaults. Keys absent from the
// persisted blob keep their default values, including individual entries
// of the required-field and field-mapping maps.
func (s *Store) Load(ctx context.Context) model.Settings {
	merged := model.DefaultSettings()
	found, err := store.LoadJSON(ctx, s.st, store.KeySettings, &merged)
	if err != nil {
		zap.L().Warn("settings: load failed, using defaults", zap.Error(err))
		merged = model.DefaultSettings()
	} else if found {
		defaults := model.DefaultSettings()
		if merged.RequiredFields == nil {
			merged.RequiredFields = defaults.RequiredFields
		}
		if merged.FieldMappings == nil {
			merged.FieldMappings = defaults.FieldMappings
		}
	}

	s.mu.Lock()
	s.current = merged
	s.mu.Unlock()
	return merged.Clone()
}

// Get returns a copy of the current settings.
func (s *Store) Get() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Save replaces the settings. The new value is returned by subsequent Get
// calls even if persisting it fails.
func (s *Store) Save(ctx context.Context, next model.Settings) {
	next = next.Clone()

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	if err := store.SaveJSON(ctx, s.st, store.KeySettings, next); err != nil {
		zap.L().Warn("settings: save failed", zap.Error(err))
	}
}

// Reset is Save(model.DefaultSettings()).
func (s *Store) Reset(ctx context.Context) model.Settings {
	d := model.DefaultSettings()
	s.Save(ctx, d)
	return d
}
