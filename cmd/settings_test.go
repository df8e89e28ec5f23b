package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-autosync/internal/model"
)

func TestWriteSettings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, model.DefaultSettings()))

	output := buf.String()
	assert.Contains(t, output, "max_emails: 50")
	assert.Contains(t, output, "min_confidence_threshold: 60")
	assert.Contains(t, output, "field_mappings:")
}

func TestReadSettings_OverBase(t *testing.T) {
	base := model.DefaultSettings()
	base.DefaultKeywords = "renewal"

	got, err := readSettings(strings.NewReader("max_emails: 120\ndefault_sender_domains: acme.com\n"), base)
	require.NoError(t, err)
	assert.Equal(t, 120, got.MaxEmails)
	assert.Equal(t, "acme.com", got.DefaultSenderDomains)
	assert.Equal(t, "renewal", got.DefaultKeywords, "missing keys keep the base value")
	assert.Equal(t, 60, got.MinConfidenceThreshold)
	assert.Equal(t, "renewal", base.DefaultKeywords)
}

func TestReadSettings_RoundTrip(t *testing.T) {
	want := model.DefaultSettings()
	want.MaxEmails = 75
	want.DefaultSenderDomains = "acme.com, globex.com"

	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, want))

	got, err := readSettings(&buf, model.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadSettings_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"out of range", "max_emails: 500\n"},
		{"negative confidence", "min_confidence_threshold: -1\n"},
		{"not yaml", "max_emails: [1, 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readSettings(strings.NewReader(tt.input), model.DefaultSettings())
			assert.Error(t, err)
		})
	}
}

func TestReadSettings_Empty(t *testing.T) {
	got, err := readSettings(strings.NewReader(""), model.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)
}
