package model

import "github.com/rotisserie/eris"

// Settings is the durable configuration consumed when composing the
// extraction instruction.
type Settings struct {
	DefaultSenderDomains   string            `json:"defaultSenderDomains" yaml:"default_sender_domains"`
	DefaultKeywords        string            `json:"defaultKeywords" yaml:"default_keywords"`
	MaxEmails              int               `json:"maxEmails" yaml:"max_emails"`
	RequiredFields         map[string]bool   `json:"requiredFields" yaml:"required_fields"`
	MinConfidenceThreshold int               `json:"minConfidenceThreshold" yaml:"min_confidence_threshold"`
	FieldMappings          map[string]string `json:"fieldMappings" yaml:"field_mappings"`
}

// Input ranges accepted by the configuration surface.
const (
	MinMaxEmails  = 10
	MaxMaxEmails  = 200
	MinConfidence = 0
	MaxConfidence = 100
)

// DefaultSettings returns a fresh copy of the default settings.
func DefaultSettings() Settings {
	return Settings{
		MaxEmails: 50,
		RequiredFields: map[string]bool{
			FieldContactName:  true,
			FieldContactEmail: true,
			FieldCompany:      true,
			FieldJobTitle:     false,
			FieldDealName:     true,
			FieldDealValue:    true,
			FieldDealStage:    true,
			FieldNextSteps:    false,
		},
		MinConfidenceThreshold: 60,
		FieldMappings: map[string]string{
			FieldContactName:  "firstname + lastname",
			FieldContactEmail: "email",
			FieldCompany:      "company",
			FieldJobTitle:     "jobtitle",
			FieldDealName:     "dealname",
			FieldDealValue:    "amount",
			FieldDealStage:    "dealstage",
			FieldNextSteps:    "notes",
		},
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	if s.RequiredFields != nil {
		out.RequiredFields = make(map[string]bool, len(s.RequiredFields))
		for k, v := range s.RequiredFields {
			out.RequiredFields[k] = v
		}
	}
	if s.FieldMappings != nil {
		out.FieldMappings = make(map[string]string, len(s.FieldMappings))
		for k, v := range s.FieldMappings {
			out.FieldMappings[k] = v
		}
	}
	return out
}

// CheckRanges reports values outside the ranges accepted from user input.
func (s Settings) CheckRanges() error {
	if s.MaxEmails < MinMaxEmails || s.MaxEmails > MaxMaxEmails {
		return eris.Errorf("model: maxEmails must be between %d and %d, got %d", MinMaxEmails, MaxMaxEmails, s.MaxEmails)
	}
	if s.MinConfidenceThreshold < MinConfidence || s.MinConfidenceThreshold > MaxConfidence {
		return eris.Errorf("model: minConfidenceThreshold must be between %d and %d, got %d", MinConfidence, MaxConfidence, s.MinConfidenceThreshold)
	}
	return nil
}
