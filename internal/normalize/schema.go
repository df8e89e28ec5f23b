package normalize

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const extractionSchema = `{
	"type": "object",
	"required": ["validated_entries"],
	"properties": {
		"validated_entries": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["contact_name", "validation_status"],
				"properties": {
					"contact_name": {"type": "string"},
					"contact_email": {"type": "string"},
					"company": {"type": "string"},
					"job_title": {"type": "string"},
					"deal_name": {"type": "string"},
					"deal_value": {"type": ["string", "number"]},
					"deal_stage": {"type": "string"},
					"next_steps": {"type": "string"},
					"confidence_score": {"type": "number", "minimum": 0, "maximum": 100},
					"validation_status": {"enum": ["validated", "flagged", "incomplete"]},
					"validation_issues": {"type": "array", "items": {"type": "string"}},
					"is_duplicate": {"type": "boolean"},
					"source_email_subject": {"type": "string"}
				}
			}
		},
		"summary": {
			"type": "object",
			"properties": {
				"total_emails_processed": {"type": "number"},
				"total_entries": {"type": "number"},
				"validated_count": {"type": "number"},
				"flagged_count": {"type": "number"},
				"incomplete_count": {"type": "number"},
				"duplicate_count": {"type": "number"},
				"average_confidence": {"type": "number"}
			}
		},
		"pipeline_status": {"type": "string"}
	}
}`

const pushSchema = `{
	"type": "object",
	"required": ["results"],
	"properties": {
		"results": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["status"],
				"properties": {
					"status": {"enum": ["success", "failed"]},
					"hubspot_contact_id": {"type": "string"},
					"hubspot_deal_id": {"type": "string"},
					"error_message": {"type": "string"}
				}
			}
		},
		"summary": {
			"type": "object",
			"properties": {
				"total_processed": {"type": "number"},
				"successful": {"type": "number"},
				"failed": {"type": "number"}
			}
		}
	}
}`

var (
	extractionValidator = jsonschema.MustCompileString("extraction.json", extractionSchema)
	pushValidator       = jsonschema.MustCompileString("push.json", pushSchema)
)

// ExtractionDrift reports how a parsed extraction payload deviates from the
// expected agent contract. A nil return means the payload conforms. Drift is
// informational; normalization succeeds either way.
func ExtractionDrift(m map[string]any) error {
	return drift(extractionValidator, m)
}

// PushDrift is ExtractionDrift for push payloads.
func PushDrift(m map[string]any) error {
	return drift(pushValidator, m)
}

func drift(s *jsonschema.Schema, m map[string]any) error {
	// Round-trip so the validator only sees JSON-native types.
	data, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "normalize: encode payload")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "normalize: decode payload")
	}
	if err := s.Validate(v); err != nil {
		return eris.Wrap(err, "normalize: schema drift")
	}
	return nil
}
