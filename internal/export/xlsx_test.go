package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crm-autosync/internal/model"
)

func sampleRuns() []model.ProcessingRun {
	return []model.ProcessingRun{
		{
			ID: "run-2", Date: "2026-02-21T10:30:00Z", Status: "completed",
			EmailCount: 12, EntriesCreated: 2, SuccessCount: 1, FailureCount: 1,
			Entries: []model.CRMEntry{
				{ContactName: "Sarah Chen", Company: "TechVista", DealValue: "$125,000", ConfidenceScore: 92, ValidationStatus: model.ValidationValidated},
				{ContactName: "Marcus Rodriguez", ConfidenceScore: 55, ValidationStatus: model.ValidationFlagged,
					ValidationIssues: []string{"Deal value high", "Missing stage"}, IsDuplicate: true},
			},
		},
		{ID: "run-1", Date: "2026-02-20T09:00:00Z", Status: "partial", EmailCount: 3, Entries: []model.CRMEntry{}},
	}
}

func rows(t *testing.T, sheet *xlsx.Sheet) [][]string {
	t.Helper()
	var out [][]string
	for _, r := range sheet.Rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = c.String()
		}
		out = append(out, cells)
	}
	return out
}

func TestSaveHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, SaveHistory(path, sampleRuns()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	runSheet, ok := f.Sheet[SheetRuns]
	require.True(t, ok)
	got := rows(t, runSheet)
	require.Len(t, got, 3)
	assert.Equal(t, runHeader, got[0])
	assert.Equal(t, []string{"run-2", "2026-02-21T10:30:00Z", "completed", "12", "2", "1", "1"}, got[1])
	assert.Equal(t, "run-1", got[2][0])

	entrySheet, ok := f.Sheet[SheetEntries]
	require.True(t, ok)
	entries := rows(t, entrySheet)
	require.Len(t, entries, 3)
	assert.Equal(t, entryHeader, entries[0])
	assert.Equal(t, "Sarah Chen", entries[1][1])
	assert.Equal(t, "92", entries[1][9])
	assert.Equal(t, "high", entries[1][10])
	assert.Equal(t, "medium", entries[2][10])
	assert.Equal(t, "Deal value high; Missing stage", entries[2][12])
	assert.Equal(t, "yes", entries[2][13])
}

func TestWriteHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Len(t, f.Sheet[SheetRuns].Rows, 1)
}
