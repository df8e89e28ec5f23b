package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-autosync/internal/model"
)

// ExtractFilters narrows which source emails the extraction agent considers.
// Blank fields are left out of the instruction.
type ExtractFilters struct {
	SenderDomain string `json:"sender_domain"`
	Keywords     string `json:"keywords"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
}

// BuildExtractionInstruction composes the natural-language request sent to
// the extraction coordinator.
func BuildExtractionInstruction(f ExtractFilters, s model.Settings) string {
	var parts []string
	if v := strings.TrimSpace(f.SenderDomain); v != "" {
		parts = append(parts, "sender domain: "+v)
	}
	if v := strings.TrimSpace(f.Keywords); v != "" {
		parts = append(parts, "keywords: "+v)
	}
	if v := strings.TrimSpace(f.DateFrom); v != "" {
		parts = append(parts, "from date: "+v)
	}
	if v := strings.TrimSpace(f.DateTo); v != "" {
		parts = append(parts, "to date: "+v)
	}

	filters := "no specific filters"
	if len(parts) > 0 {
		filters = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(
		"Fetch emails from Gmail with filters: %s. Then extract CRM data and validate all entries. Max emails: %d. Minimum confidence threshold: %d%%.",
		filters, s.MaxEmails, s.MinConfidenceThreshold,
	)
}

// BuildPushInstruction embeds the pushable fields of entries as a JSON
// array. Validation metadata is never sent.
func BuildPushInstruction(entries []model.CRMEntry) (string, error) {
	payload := make([]model.PushableEntry, len(entries))
	for i, e := range entries {
		payload[i] = e.Pushable()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", eris.Wrap(err, "pipeline: encode push payload")
	}
	return "Create the following contacts and deals in HubSpot: " + strings.TrimSuffix(buf.String(), "\n"), nil
}
