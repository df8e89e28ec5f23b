// Package review holds the working set of extracted entries between an
// extraction run and the push that commits them.
package review

import (
	"slices"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-autosync/internal/model"
)

var (
	// ErrIndexOutOfRange is returned when an index does not address an entry.
	ErrIndexOutOfRange = eris.New("review: index out of range")
	// ErrUnknownField is returned when an edit names a field that cannot be edited.
	ErrUnknownField = model.ErrUnknownField
)

// Manager owns the working set, the status filter, the selection and the
// results of the latest push. Selection indices address the filtered view.
type Manager struct {
	mu       sync.RWMutex
	entries  []model.CRMEntry
	filter   model.StatusFilter
	selected map[int]struct{}
	results  []model.PushResult
}

// NewManager creates an empty Manager showing every status.
func NewManager() *Manager {
	return &Manager{
		entries:  []model.CRMEntry{},
		filter:   model.FilterAll,
		selected: make(map[int]struct{}),
		results:  []model.PushResult{},
	}
}

// Replace swaps in a new working set and forgets the selection and push
// results, which referred to the superseded entries.
func (m *Manager) Replace(entries []model.CRMEntry) {
	next := make([]model.CRMEntry, len(entries))
	copy(next, entries)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = next
	m.selected = make(map[int]struct{})
	m.results = []model.PushResult{}
}

// Entries returns a copy of the unfiltered working set.
func (m *Manager) Entries() []model.CRMEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries)
}

// Len returns the size of the unfiltered working set.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Filter returns the current status filter.
func (m *Manager) Filter() model.StatusFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetFilter changes the projection. Changing to a different filter clears
// the selection because its indices address the old view.
func (m *Manager) SetFilter(f model.StatusFilter) {
	if f == "" {
		f = model.FilterAll
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f == m.filter {
		return
	}
	m.filter = f
	m.selected = make(map[int]struct{})
}

// Filtered returns the working set projected through the status filter.
func (m *Manager) Filtered() []model.CRMEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filteredLocked()
}

func (m *Manager) filteredLocked() []model.CRMEntry {
	out := make([]model.CRMEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Matches(m.filter) {
			out = append(out, e)
		}
	}
	return out
}

// Toggle flips the selection of the entry at index i of the filtered view.
func (m *Manager) Toggle(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.filteredLocked()) {
		return eris.Wrapf(ErrIndexOutOfRange, "select %d", i)
	}
	if _, ok := m.selected[i]; ok {
		delete(m.selected, i)
	} else {
		m.selected[i] = struct{}{}
	}
	return nil
}

// ToggleAll empties the selection when it covers exactly as many entries
// as the filtered view, and otherwise selects the whole filtered view.
func (m *Manager) ToggleAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.filteredLocked())
	if len(m.selected) == n {
		m.selected = make(map[int]struct{})
		return
	}
	m.selected = make(map[int]struct{}, n)
	for i := range n {
		m.selected[i] = struct{}{}
	}
}

// ClearSelection empties the selection.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = make(map[int]struct{})
}

// SelectedIndices returns the selected filtered-view indices in ascending order.
func (m *Manager) SelectedIndices() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.selected))
	for i := range m.selected {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Selected returns the selected entries in filtered-view order.
func (m *Manager) Selected() []model.CRMEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.CRMEntry
	for i, e := range m.filteredLocked() {
		if _, ok := m.selected[i]; ok {
			out = append(out, e)
		}
	}
	return out
}

// UpdateField overwrites one text field of the entry at absolute index i
// and returns the updated entry.
func (m *Manager) UpdateField(i int, field, value string) (model.CRMEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.entries) {
		return model.CRMEntry{}, eris.Wrapf(ErrIndexOutOfRange, "edit %d", i)
	}
	updated, err := m.entries[i].WithField(field, value)
	if err != nil {
		return model.CRMEntry{}, eris.Wrapf(err, "review: edit %d", i)
	}
	m.entries[i] = updated
	return updated, nil
}

// SetPushResults records the outcome of the latest push.
func (m *Manager) SetPushResults(results []model.PushResult) {
	next := make([]model.PushResult, len(results))
	copy(next, results)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = next
}

// PushResults returns the outcome of the latest push.
func (m *Manager) PushResults() []model.PushResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.results)
}
