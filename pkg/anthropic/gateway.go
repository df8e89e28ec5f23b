package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/resilience"
	"github.com/sells-group/crm-autosync/pkg/agent"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 8192
)

const extractionPrompt = `You are a CRM data extraction and validation coordinator.
Follow the user's instruction about which emails to consider. For every business
conversation you find, produce one CRM entry.

Respond with a single JSON object and nothing else:
{
  "validated_entries": [{
    "contact_name": "", "contact_email": "", "company": "", "job_title": "",
    "deal_name": "", "deal_value": "", "deal_stage": "", "next_steps": "",
    "confidence_score": 0, "validation_status": "validated|flagged|incomplete",
    "validation_issues": [], "is_duplicate": false, "source_email_subject": ""
  }],
  "summary": {
    "total_emails_processed": 0, "total_entries": 0, "validated_count": 0,
    "flagged_count": 0, "incomplete_count": 0, "duplicate_count": 0,
    "average_confidence": 0
  },
  "pipeline_status": "completed"
}

An entry is incomplete when a required field is empty, flagged when it has
validation issues, and validated otherwise.`

const pushPrompt = `You are a CRM entry agent. The user gives you contacts and deals to
create. Report the outcome of every entry.

Respond with a single JSON object and nothing else:
{
  "results": [{
    "contact_name": "", "contact_email": "", "company": "", "deal_name": "",
    "status": "success|failed", "hubspot_contact_id": "", "hubspot_deal_id": "",
    "error_message": ""
  }],
  "summary": {"total_processed": 0, "successful": 0, "failed": 0}
}`

// GatewayConfig binds agent ids to the prompts the gateway serves.
type GatewayConfig struct {
	Model             string
	MaxTokens         int64
	ExtractionAgentID string
	PushAgentID       string
}

// Gateway answers agent invocations with the Messages API. Each known agent
// id maps to a system prompt; the model's text becomes the envelope result.
type Gateway struct {
	client    Client
	model     string
	maxTokens int64
	prompts   map[string]string
}

var _ agent.Gateway = (*Gateway)(nil)

// NewGateway creates a Gateway over client.
func NewGateway(client Client, cfg GatewayConfig) *Gateway {
	g := &Gateway{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		prompts: map[string]string{
			cfg.ExtractionAgentID: extractionPrompt,
			cfg.PushAgentID:       pushPrompt,
		},
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = defaultMaxTokens
	}
	return g
}

// Invoke implements agent.Gateway. Unknown agent ids are reported as agent
// failures. API errors are transport errors.
func (g *Gateway) Invoke(ctx context.Context, instruction, agentID string) (*agent.Envelope, error) {
	prompt, ok := g.prompts[agentID]
	if !ok {
		return &agent.Envelope{Success: false, Error: "unknown agent: " + agentID}, nil
	}

	resp, err := g.client.CreateMessage(ctx, MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    []SystemBlock{{Text: prompt, Cached: true}},
		Messages:  []Message{{Role: "user", Content: instruction}},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return nil, eris.Wrap(resilience.NewTransientError(err, apiErr.StatusCode), "anthropic: invoke")
		}
		return nil, eris.Wrap(err, "anthropic: invoke")
	}
	resp.Usage.LogCost(g.model, agentID)

	text := StripFences(resp.Text())
	if resp.StopReason == "max_tokens" {
		zap.L().Warn("anthropic: response truncated",
			zap.String("agent_id", agentID),
			zap.Int64("max_tokens", g.maxTokens),
		)
	}

	return &agent.Envelope{
		Success:  true,
		Response: &agent.Response{Status: "success", Result: text},
	}, nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
