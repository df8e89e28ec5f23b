package model

import (
	"github.com/rotisserie/eris"
)

// ValidationStatus is the validation outcome assigned to an entry by the
// extraction agent.
type ValidationStatus string

const (
	ValidationValidated  ValidationStatus = "validated"
	ValidationFlagged    ValidationStatus = "flagged"
	ValidationIncomplete ValidationStatus = "incomplete"
)

// StatusFilter selects a projection of the working set.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterValidated  StatusFilter = StatusFilter(ValidationValidated)
	FilterFlagged    StatusFilter = StatusFilter(ValidationFlagged)
	FilterIncomplete StatusFilter = StatusFilter(ValidationIncomplete)
)

// ErrUnknownField is returned when an edit names a field that is not an
// editable text field of CRMEntry.
var ErrUnknownField = eris.New("model: unknown entry field")

// ParseStatusFilter converts user input into a StatusFilter. Empty input
// means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterValidated, FilterFlagged, FilterIncomplete:
		return StatusFilter(s), nil
	default:
		return "", eris.Errorf("model: invalid status filter %q", s)
	}
}

// Entry field names, as used by the extraction agent, required-field
// settings and field mappings.
const (
	FieldContactName        = "contact_name"
	FieldContactEmail       = "contact_email"
	FieldCompany            = "company"
	FieldJobTitle           = "job_title"
	FieldDealName           = "deal_name"
	FieldDealValue          = "deal_value"
	FieldDealStage          = "deal_stage"
	FieldNextSteps          = "next_steps"
	FieldSourceEmailSubject = "source_email_subject"
)

// PushableFields lists the fields sent to the push agent, in payload order.
var PushableFields = []string{
	FieldContactName,
	FieldContactEmail,
	FieldCompany,
	FieldJobTitle,
	FieldDealName,
	FieldDealValue,
	FieldDealStage,
	FieldNextSteps,
}

// CRMEntry is one extracted contact and deal record.
type CRMEntry struct {
	ContactName        string           `json:"contact_name"`
	ContactEmail       string           `json:"contact_email"`
	Company            string           `json:"company"`
	JobTitle           string           `json:"job_title"`
	DealName           string           `json:"deal_name"`
	DealValue          string           `json:"deal_value"`
	DealStage          string           `json:"deal_stage"`
	NextSteps          string           `json:"next_steps"`
	ConfidenceScore    int              `json:"confidence_score"`
	ValidationStatus   ValidationStatus `json:"validation_status"`
	ValidationIssues   []string         `json:"validation_issues"`
	IsDuplicate        bool             `json:"is_duplicate"`
	SourceEmailSubject string           `json:"source_email_subject"`
}

// Matches reports whether the entry belongs to the given filter. Entries
// carrying a status outside the known set only match FilterAll.
func (e CRMEntry) Matches(f StatusFilter) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return string(e.ValidationStatus) == string(f)
}

// Field returns the value of a text field by name.
func (e CRMEntry) Field(name string) (string, bool) {
	switch name {
	case FieldContactName:
		return e.ContactName, true
	case FieldContactEmail:
		return e.ContactEmail, true
	case FieldCompany:
		return e.Company, true
	case FieldJobTitle:
		return e.JobTitle, true
	case FieldDealName:
		return e.DealName, true
	case FieldDealValue:
		return e.DealValue, true
	case FieldDealStage:
		return e.DealStage, true
	case FieldNextSteps:
		return e.NextSteps, true
	case FieldSourceEmailSubject:
		return e.SourceEmailSubject, true
	}
	return "", false
}

// WithField returns a copy of e with exactly one text field overwritten.
func (e CRMEntry) WithField(name, value string) (CRMEntry, error) {
	switch name {
	case FieldContactName:
		e.ContactName = value
	case FieldContactEmail:
		e.ContactEmail = value
	case FieldCompany:
		e.Company = value
	case FieldJobTitle:
		e.JobTitle = value
	case FieldDealName:
		e.DealName = value
	case FieldDealValue:
		e.DealValue = value
	case FieldDealStage:
		e.DealStage = value
	case FieldNextSteps:
		e.NextSteps = value
	case FieldSourceEmailSubject:
		e.SourceEmailSubject = value
	default:
		return e, eris.Wrapf(ErrUnknownField, "field %q", name)
	}
	return e, nil
}

// PushableEntry is the subset of an entry sent to the push agent. It never
// carries validation metadata.
type PushableEntry struct {
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Company      string `json:"company"`
	JobTitle     string `json:"job_title"`
	DealName     string `json:"deal_name"`
	DealValue    string `json:"deal_value"`
	DealStage    string `json:"deal_stage"`
	NextSteps    string `json:"next_steps"`
}

// Pushable projects the entry onto its pushable fields.
func (e CRMEntry) Pushable() PushableEntry {
	return PushableEntry{
		ContactName:  e.ContactName,
		ContactEmail: e.ContactEmail,
		Company:      e.Company,
		JobTitle:     e.JobTitle,
		DealName:     e.DealName,
		DealValue:    e.DealValue,
		DealStage:    e.DealStage,
		NextSteps:    e.NextSteps,
	}
}
