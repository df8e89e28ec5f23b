package normalize

import (
	"github.com/sells-group/crm-autosync/internal/model"
)

// Extraction is the typed view of an extraction agent result.
type Extraction struct {
	Entries []model.CRMEntry
	Summary *model.ProcessingSummary
	Status  string
}

// Push is the typed view of a push agent result.
type Push struct {
	Results []model.PushResult
	Summary *model.PushSummary
}

// Entry converts one agent object into a CRMEntry.
func Entry(m map[string]any) model.CRMEntry {
	return model.CRMEntry{
		ContactName:        String(m, model.FieldContactName),
		ContactEmail:       String(m, model.FieldContactEmail),
		Company:            String(m, model.FieldCompany),
		JobTitle:           String(m, model.FieldJobTitle),
		DealName:           String(m, model.FieldDealName),
		DealValue:          String(m, model.FieldDealValue),
		DealStage:          String(m, model.FieldDealStage),
		NextSteps:          String(m, model.FieldNextSteps),
		ConfidenceScore:    Confidence(m, "confidence_score"),
		ValidationStatus:   model.ValidationStatus(String(m, "validation_status")),
		ValidationIssues:   Strings(m, "validation_issues"),
		IsDuplicate:        Bool(m, "is_duplicate"),
		SourceEmailSubject: String(m, model.FieldSourceEmailSubject),
	}
}

// Summary converts m into a ProcessingSummary, or nil when m is nil.
func Summary(m map[string]any) *model.ProcessingSummary {
	if m == nil {
		return nil
	}
	return &model.ProcessingSummary{
		TotalEmailsProcessed: Int(m, "total_emails_processed"),
		TotalEntries:         Int(m, "total_entries"),
		ValidatedCount:       Int(m, "validated_count"),
		FlaggedCount:         Int(m, "flagged_count"),
		IncompleteCount:      Int(m, "incomplete_count"),
		DuplicateCount:       Int(m, "duplicate_count"),
		AverageConfidence:    Float(m, "average_confidence"),
	}
}

// ParseExtraction normalizes an extraction agent result.
func ParseExtraction(raw any) Extraction {
	m := Parse(raw)

	objs := Objects(m, "validated_entries")
	entries := make([]model.CRMEntry, 0, len(objs))
	for _, obj := range objs {
		entries = append(entries, Entry(obj))
	}

	status := model.RunStatusCompleted
	if s, ok := m["pipeline_status"].(string); ok {
		status = s
	}

	return Extraction{
		Entries: entries,
		Summary: Summary(Object(m, "summary")),
		Status:  status,
	}
}

// PushResult converts one agent object into a PushResult.
func PushResult(m map[string]any) model.PushResult {
	return model.PushResult{
		ContactName:      String(m, "contact_name"),
		ContactEmail:     String(m, "contact_email"),
		Company:          String(m, "company"),
		DealName:         String(m, "deal_name"),
		Status:           model.PushStatus(String(m, "status")),
		HubspotContactID: String(m, "hubspot_contact_id"),
		HubspotDealID:    String(m, "hubspot_deal_id"),
		ErrorMessage:     String(m, "error_message"),
	}
}

// ParsePush normalizes a push agent result.
func ParsePush(raw any) Push {
	m := Parse(raw)

	objs := Objects(m, "results")
	results := make([]model.PushResult, 0, len(objs))
	for _, obj := range objs {
		results = append(results, PushResult(obj))
	}

	var summary *model.PushSummary
	if sm := Object(m, "summary"); sm != nil {
		summary = &model.PushSummary{
			TotalProcessed: OptionalInt(sm, "total_processed"),
			Successful:     OptionalInt(sm, "successful"),
			Failed:         OptionalInt(sm, "failed"),
		}
	}

	return Push{Results: results, Summary: summary}
}

// Counts returns the success and failure counts for a push, preferring the
// agent's summary fields and falling back to counting results by status.
func (p Push) Counts() (succeeded, failed int) {
	for _, r := range p.Results {
		switch r.Status {
		case model.PushSuccess:
			succeeded++
		case model.PushFailed:
			failed++
		}
	}
	if p.Summary != nil {
		if p.Summary.Successful != nil {
			succeeded = *p.Summary.Successful
		}
		if p.Summary.Failed != nil {
			failed = *p.Summary.Failed
		}
	}
	return succeeded, failed
}
