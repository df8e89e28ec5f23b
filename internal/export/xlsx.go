// Package export writes run history to spreadsheets.
package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crm-autosync/internal/model"
)

// Sheet names of the history workbook.
const (
	SheetRuns    = "Runs"
	SheetEntries = "Entries"
)

var (
	runHeader   = []string{"Run ID", "Date", "Status", "Emails", "Entries", "Succeeded", "Failed"}
	entryHeader = []string{
		"Run ID", "Contact", "Email", "Company", "Job Title", "Deal", "Deal Value",
		"Stage", "Next Steps", "Confidence", "Band", "Status", "Issues", "Duplicate", "Source Subject",
	}
)

// HistoryWorkbook builds a workbook with one row per run and one row per
// snapshot entry, in the order given.
func HistoryWorkbook(runs []model.ProcessingRun) (*xlsx.File, error) {
	f := xlsx.NewFile()

	runSheet, err := f.AddSheet(SheetRuns)
	if err != nil {
		return nil, eris.Wrap(err, "export: add runs sheet")
	}
	entrySheet, err := f.AddSheet(SheetEntries)
	if err != nil {
		return nil, eris.Wrap(err, "export: add entries sheet")
	}

	addStrings(runSheet.AddRow(), runHeader...)
	addStrings(entrySheet.AddRow(), entryHeader...)

	for _, r := range runs {
		row := runSheet.AddRow()
		addStrings(row, r.ID, r.Date, r.Status)
		addInts(row, r.EmailCount, r.EntriesCreated, r.SuccessCount, r.FailureCount)

		for _, e := range r.Entries {
			row := entrySheet.AddRow()
			addStrings(row, r.ID, e.ContactName, e.ContactEmail, e.Company, e.JobTitle,
				e.DealName, e.DealValue, e.DealStage, e.NextSteps)
			addInts(row, e.ConfidenceScore)
			dup := "no"
			if e.IsDuplicate {
				dup = "yes"
			}
			addStrings(row, model.ConfidenceBand(e.ConfidenceScore), string(e.ValidationStatus),
				strings.Join(e.ValidationIssues, "; "), dup, e.SourceEmailSubject)
		}
	}
	return f, nil
}

// WriteHistory writes the history workbook to w.
func WriteHistory(w io.Writer, runs []model.ProcessingRun) error {
	f, err := HistoryWorkbook(runs)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// SaveHistory writes the history workbook to path.
func SaveHistory(path string, runs []model.ProcessingRun) error {
	f, err := HistoryWorkbook(runs)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addInts(row *xlsx.Row, values ...int) {
	for _, v := range values {
		row.AddCell().SetInt(v)
	}
}
