// Package metrics tracks the lifetime counters shown on the dashboard.
package metrics

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/store"
)

// Tracker holds the lifetime counters and persists them under
// store.KeyMetrics after every change.
type Tracker struct {
	st store.Store

	mu sync.RWMutex
	m  model.Metrics
}

// New creates a Tracker with zeroed counters.
func New(st store.Store) *Tracker {
	return &Tracker{st: st}
}

// Load reads the persisted counters. Absent or unreadable state yields zero
// counters.
func (t *Tracker) Load(ctx context.Context) model.Metrics {
	var m model.Metrics
	if _, err := store.LoadJSON(ctx, t.st, store.KeyMetrics, &m); err != nil {
		zap.L().Warn("metrics: load failed, starting from zero", zap.Error(err))
		m = model.Metrics{}
	}

	t.mu.Lock()
	t.m = m
	t.mu.Unlock()
	return m
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() model.Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m
}

// RecordExtraction accounts for a successful extraction. The pending review
// count is set to the size of the new working set.
func (t *Tracker) RecordExtraction(ctx context.Context, emails, entries int) model.Metrics {
	return t.update(ctx, func(m *model.Metrics) {
		m.TotalEmailsProcessed += emails
		m.TotalEntriesCreated += entries
		m.PendingReview = entries
	})
}

// RecordPush accounts for a successful push. Every selected entry leaves
// the pending review pool whether or not the CRM accepted it.
func (t *Tracker) RecordPush(ctx context.Context, failed, selected int) model.Metrics {
	return t.update(ctx, func(m *model.Metrics) {
		m.TotalErrors += failed
		m.PendingReview = max(0, m.PendingReview-selected)
	})
}

func (t *Tracker) update(ctx context.Context, fn func(*model.Metrics)) model.Metrics {
	t.mu.Lock()
	fn(&t.m)
	snapshot := t.m
	t.mu.Unlock()

	if err := store.SaveJSON(ctx, t.st, store.KeyMetrics, snapshot); err != nil {
		zap.L().Warn("metrics: persist failed", zap.Error(err))
	}
	return snapshot
}
