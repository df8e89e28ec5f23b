package model

import "time"

// RunStatusCompleted is the pipeline status used when the agent reports none.
const RunStatusCompleted = "completed"

// ProcessingSummary holds the aggregate counts reported by the extraction
// agent for one run. It is never recomputed from entries.
type ProcessingSummary struct {
	TotalEmailsProcessed int     `json:"total_emails_processed"`
	TotalEntries         int     `json:"total_entries"`
	ValidatedCount       int     `json:"validated_count"`
	FlaggedCount         int     `json:"flagged_count"`
	IncompleteCount      int     `json:"incomplete_count"`
	DuplicateCount       int     `json:"duplicate_count"`
	AverageConfidence    float64 `json:"average_confidence"`
}

// ProcessingRun is an immutable record of one completed extraction call.
type ProcessingRun struct {
	ID             string     `json:"id"`
	Date           string     `json:"date"`
	EmailCount     int        `json:"emailCount"`
	EntriesCreated int        `json:"entriesCreated"`
	SuccessCount   int        `json:"successCount"`
	FailureCount   int        `json:"failureCount"`
	Status         string     `json:"status"`
	Entries        []CRMEntry `json:"entries"`
}

// Time parses the run date. The zero time is returned for unparseable dates.
func (r ProcessingRun) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PushStatus is the outcome of pushing one entry.
type PushStatus string

const (
	PushSuccess PushStatus = "success"
	PushFailed  PushStatus = "failed"
)

// PushResult is the outcome of pushing one entry to the external CRM.
type PushResult struct {
	ContactName      string     `json:"contact_name"`
	ContactEmail     string     `json:"contact_email"`
	Company          string     `json:"company"`
	DealName         string     `json:"deal_name"`
	Status           PushStatus `json:"status"`
	HubspotContactID string     `json:"hubspot_contact_id"`
	HubspotDealID    string     `json:"hubspot_deal_id"`
	ErrorMessage     string     `json:"error_message"`
}

// PushSummary holds the aggregate counts reported by the push agent. Nil
// pointers mean the agent omitted the field.
type PushSummary struct {
	TotalProcessed *int `json:"total_processed,omitempty"`
	Successful     *int `json:"successful,omitempty"`
	Failed         *int `json:"failed,omitempty"`
}
