package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-autosync/internal/model"
)

func TestParse(t *testing.T) {
	t.Parallel()

	obj := map[string]any{"pipeline_status": "completed"}

	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{"object passthrough", obj, obj},
		{"json string", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json bytes", []byte(`{"a":"b"}`), map[string]any{"a": "b"}},
		{"raw message", json.RawMessage(`{"ok":true}`), map[string]any{"ok": true}},
		{"invalid json", `{not json`, map[string]any{}},
		{"json array", `[1,2,3]`, map[string]any{}},
		{"json null", `null`, map[string]any{}},
		{"empty string", "", map[string]any{}},
		{"number", 42, map[string]any{}},
		{"nil", nil, map[string]any{}},
		{"slice", []any{"x"}, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalarHelpers(t *testing.T) {
	t.Parallel()

	m := map[string]any{
		"s":      "hello",
		"f":      float64(12.7),
		"numstr": "42",
		"b":      true,
		"list":   []any{"a", 1, "b", nil},
		"obj":    map[string]any{"k": "v"},
		"nan":    "NaN",
	}

	assert.Equal(t, "hello", String(m, "s"))
	assert.Equal(t, "12.7", String(m, "f"))
	assert.Equal(t, "", String(m, "b"))
	assert.Equal(t, "", String(m, "missing"))

	assert.Equal(t, 12, Int(m, "f"))
	assert.Equal(t, 42, Int(m, "numstr"))
	assert.Equal(t, 0, Int(m, "s"))
	assert.Equal(t, 0, Int(m, "missing"))
	assert.InDelta(t, 0, Float(m, "nan"), 0.0001)

	require.NotNil(t, OptionalInt(m, "numstr"))
	assert.Equal(t, 42, *OptionalInt(m, "numstr"))
	assert.Nil(t, OptionalInt(m, "s"))
	assert.Nil(t, OptionalInt(m, "missing"))

	assert.True(t, Bool(m, "b"))
	assert.False(t, Bool(m, "s"))

	assert.Equal(t, []string{"a", "b"}, Strings(m, "list"))
	assert.Empty(t, Strings(m, "s"))
	assert.NotNil(t, Strings(m, "missing"))

	assert.Equal(t, map[string]any{"k": "v"}, Object(m, "obj"))
	assert.Nil(t, Object(m, "list"))
	assert.Nil(t, List(m, "obj"))
}

func TestInt_ClampsOutOfRange(t *testing.T) {
	t.Parallel()

	m := map[string]any{
		"huge":    1e300,
		"tiny":    -1e300,
		"hugestr": "1e300",
		"big":     float64(3_000_000_000),
		"conf":    float64(250),
		"negconf": float64(-5),
		"okconf":  "87.9",
	}

	assert.Equal(t, math.MaxInt32, Int(m, "huge"))
	assert.Equal(t, math.MinInt32, Int(m, "tiny"))
	assert.Equal(t, math.MaxInt32, Int(m, "hugestr"))
	assert.Equal(t, math.MaxInt32, Int(m, "big"))

	assert.Equal(t, 100, Confidence(m, "conf"))
	assert.Equal(t, 0, Confidence(m, "negconf"))
	assert.Equal(t, 87, Confidence(m, "okconf"))
	assert.Equal(t, 100, Confidence(m, "huge"))

	e := Entry(map[string]any{"confidence_score": 1e300})
	assert.Equal(t, 100, e.ConfidenceScore)
}

func TestParseExtraction_FullPayload(t *testing.T) {
	t.Parallel()

	raw := `{
		"validated_entries": [
			{"contact_name": "Sarah Chen", "contact_email": "sarah.chen@techvista.io", "company": "TechVista Solutions",
			 "deal_name": "TechVista Enterprise Suite", "deal_value": "125000", "deal_stage": "Negotiation",
			 "confidence_score": 94, "validation_status": "validated", "validation_issues": [], "is_duplicate": false,
			 "source_email_subject": "Re: Enterprise Suite Pricing Discussion"},
			{"contact_name": "Marcus Rodriguez", "deal_value": 89000, "confidence_score": 78,
			 "validation_status": "flagged", "validation_issues": ["Deal value format inconsistent"]}
		],
		"summary": {"total_emails_processed": 12, "total_entries": 2, "validated_count": 1, "flagged_count": 1,
		            "incomplete_count": 0, "duplicate_count": 0, "average_confidence": 86.0},
		"pipeline_status": "completed_with_warnings"
	}`

	got := ParseExtraction(raw)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "Sarah Chen", got.Entries[0].ContactName)
	assert.Equal(t, 94, got.Entries[0].ConfidenceScore)
	assert.Equal(t, model.ValidationValidated, got.Entries[0].ValidationStatus)
	assert.Equal(t, "89000", got.Entries[1].DealValue)
	assert.Equal(t, []string{"Deal value format inconsistent"}, got.Entries[1].ValidationIssues)

	require.NotNil(t, got.Summary)
	assert.Equal(t, 12, got.Summary.TotalEmailsProcessed)
	assert.Equal(t, 1, got.Summary.FlaggedCount)
	assert.InDelta(t, 86.0, got.Summary.AverageConfidence, 0.001)
	assert.Equal(t, "completed_with_warnings", got.Status)
}

func TestParseExtraction_Malformed(t *testing.T) {
	t.Parallel()

	inputs := []any{
		nil,
		"garbage",
		`[]`,
		`{"validated_entries": "not a list", "summary": [1], "pipeline_status": 7}`,
		map[string]any{"validated_entries": []any{"string item", 3, nil}},
	}

	for _, in := range inputs {
		got := ParseExtraction(in)
		assert.NotNil(t, got.Entries)
		assert.Empty(t, got.Entries)
		assert.Nil(t, got.Summary)
		assert.Equal(t, model.RunStatusCompleted, got.Status)
	}
}

func TestParseExtraction_EntryFieldsMistyped(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"validated_entries": []any{
			map[string]any{
				"contact_name":      123,
				"confidence_score":  "high",
				"validation_issues": "one issue",
				"is_duplicate":      "yes",
			},
		},
	}

	got := ParseExtraction(raw)
	require.Len(t, got.Entries, 1)
	e := got.Entries[0]
	assert.Equal(t, "123", e.ContactName)
	assert.Equal(t, 0, e.ConfidenceScore)
	assert.Empty(t, e.ValidationIssues)
	assert.False(t, e.IsDuplicate)
	assert.Equal(t, model.ValidationStatus(""), e.ValidationStatus)
}

func TestParsePush(t *testing.T) {
	t.Parallel()

	raw := `{
		"results": [
			{"contact_name": "Sarah Chen", "status": "success", "hubspot_contact_id": "101", "hubspot_deal_id": "201"},
			{"contact_name": "Emily Watson", "status": "success", "hubspot_contact_id": "102", "hubspot_deal_id": "202"},
			{"contact_name": "James Nakamura", "status": "failed", "error_message": "Duplicate deal"}
		],
		"summary": {"total_processed": 3, "successful": 2, "failed": 1}
	}`

	got := ParsePush(raw)
	require.Len(t, got.Results, 3)
	assert.Equal(t, model.PushSuccess, got.Results[0].Status)
	assert.Equal(t, "201", got.Results[0].HubspotDealID)
	assert.Equal(t, "Duplicate deal", got.Results[2].ErrorMessage)

	s, f := got.Counts()
	assert.Equal(t, 2, s)
	assert.Equal(t, 1, f)
}

func TestPush_Counts(t *testing.T) {
	t.Parallel()

	results := []model.PushResult{
		{Status: model.PushSuccess},
		{Status: model.PushFailed},
		{Status: model.PushFailed},
		{Status: "unknown"},
	}
	two, zero := 2, 0

	tests := []struct {
		name        string
		summary     *model.PushSummary
		wantSuccess int
		wantFailed  int
	}{
		{"no summary counts results", nil, 1, 2},
		{"summary overrides", &model.PushSummary{Successful: &two, Failed: &zero}, 2, 0},
		{"partial summary", &model.PushSummary{Failed: &zero}, 1, 0},
		{"empty summary", &model.PushSummary{}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, f := Push{Results: results, Summary: tt.summary}.Counts()
			assert.Equal(t, tt.wantSuccess, s)
			assert.Equal(t, tt.wantFailed, f)
		})
	}
}

func TestParsePush_Malformed(t *testing.T) {
	t.Parallel()

	got := ParsePush(`{"results": {"status": "success"}, "summary": "two"}`)
	assert.Empty(t, got.Results)
	assert.Nil(t, got.Summary)

	s, f := got.Counts()
	assert.Zero(t, s)
	assert.Zero(t, f)
}

func TestExtractionDrift(t *testing.T) {
	t.Parallel()

	ok := Parse(`{"validated_entries": [{"contact_name": "A", "validation_status": "validated", "confidence_score": 90}],
		"summary": {"total_emails_processed": 1}, "pipeline_status": "completed"}`)
	assert.NoError(t, ExtractionDrift(ok))

	missing := Parse(`{"summary": {}}`)
	err := ExtractionDrift(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema drift")

	badStatus := Parse(`{"validated_entries": [{"contact_name": "A", "validation_status": "pending"}]}`)
	assert.Error(t, ExtractionDrift(badStatus))
}

func TestPushDrift(t *testing.T) {
	t.Parallel()

	assert.NoError(t, PushDrift(Parse(`{"results": [{"status": "failed", "error_message": "x"}]}`)))
	assert.Error(t, PushDrift(Parse(`{"results": [{"status": "maybe"}]}`)))
	assert.Error(t, PushDrift(map[string]any{}))
}
