// Package ledger keeps the append-only history of extraction runs.
package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/store"
)

// Ledger holds runs most recent first and persists them under
// store.KeyHistory. It only writes after an append, so an empty ledger
// never overwrites history left by a previous session.
type Ledger struct {
	st store.Store

	mu   sync.RWMutex
	runs []model.ProcessingRun
}

// New creates an empty Ledger. Call Load to read persisted history.
func New(st store.Store) *Ledger {
	return &Ledger{st: st}
}

// NewRunID returns a unique, lexically time-ordered run id.
func NewRunID(t time.Time) string {
	return "run-" + ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// NewRun builds a run record stamped at t. The entries are copied so later
// edits to the working set never reach the snapshot.
func NewRun(t time.Time, emailCount, successCount, failureCount int, status string, entries []model.CRMEntry) model.ProcessingRun {
	return model.ProcessingRun{
		ID:             NewRunID(t),
		Date:           t.UTC().Format(time.RFC3339Nano),
		EmailCount:     emailCount,
		EntriesCreated: len(entries),
		SuccessCount:   successCount,
		FailureCount:   failureCount,
		Status:         status,
		Entries:        copyEntries(entries),
	}
}

// Load replaces the in-memory history with the persisted one. Read failures
// leave the ledger empty.
func (l *Ledger) Load(ctx context.Context) []model.ProcessingRun {
	var runs []model.ProcessingRun
	if _, err := store.LoadJSON(ctx, l.st, store.KeyHistory, &runs); err != nil {
		zap.L().Warn("ledger: load failed, starting empty", zap.Error(err))
		runs = nil
	}

	l.mu.Lock()
	l.runs = runs
	l.mu.Unlock()
	return l.All()
}

// Append inserts run at the head and persists the full history.
func (l *Ledger) Append(ctx context.Context, run model.ProcessingRun) {
	run.Entries = copyEntries(run.Entries)

	l.mu.Lock()
	next := make([]model.ProcessingRun, 0, len(l.runs)+1)
	next = append(next, run)
	next = append(next, l.runs...)
	l.runs = next
	snapshot := l.runs
	l.mu.Unlock()

	if err := store.SaveJSON(ctx, l.st, store.KeyHistory, snapshot); err != nil {
		zap.L().Warn("ledger: persist failed, history kept in memory",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
}

// All returns the history, most recent first.
func (l *Ledger) All() []model.ProcessingRun {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.ProcessingRun, len(l.runs))
	copy(out, l.runs)
	return out
}

// Len returns the number of runs.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.runs)
}

// Get looks up a run by id.
func (l *Ledger) Get(id string) (model.ProcessingRun, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.runs {
		if r.ID == id {
			return r, true
		}
	}
	return model.ProcessingRun{}, false
}

// Search filters the history. A non-blank query matches, case-insensitively,
// the run status or any snapshot entry's contact or deal name. A status
// other than "" or "all" must match exactly.
func (l *Ledger) Search(query, status string) []model.ProcessingRun {
	q := strings.ToLower(strings.TrimSpace(query))

	var out []model.ProcessingRun
	for _, r := range l.All() {
		if q != "" && !matchesQuery(r, q) {
			continue
		}
		if status != "" && status != string(model.FilterAll) && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesQuery(r model.ProcessingRun, q string) bool {
	if strings.Contains(strings.ToLower(r.Status), q) {
		return true
	}
	for _, e := range r.Entries {
		if strings.Contains(strings.ToLower(e.ContactName), q) ||
			strings.Contains(strings.ToLower(e.DealName), q) {
			return true
		}
	}
	return false
}

func copyEntries(in []model.CRMEntry) []model.CRMEntry {
	if in == nil {
		return []model.CRMEntry{}
	}
	out := make([]model.CRMEntry, len(in))
	copy(out, in)
	return out
}
