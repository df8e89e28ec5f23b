package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-autosync/internal/resilience"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

var testCfg = GatewayConfig{ExtractionAgentID: "extract-agent", PushAgentID: "push-agent"}

func TestGateway_ExtractionPrompt(t *testing.T) {
	mc := &mockClient{}
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req MessageRequest) bool {
		return req.Model == defaultModel &&
			req.MaxTokens == defaultMaxTokens &&
			len(req.System) == 1 && req.System[0].Text == extractionPrompt && req.System[0].Cached &&
			len(req.Messages) == 1 && req.Messages[0].Content == "Fetch emails"
	})).Return(&MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: "```json\n{\"validated_entries\": []}\n```"}},
	}, nil)

	g := NewGateway(mc, testCfg)
	env, err := g.Invoke(context.Background(), "Fetch emails", "extract-agent")
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.True(t, env.HasResult())
	assert.Equal(t, `{"validated_entries": []}`, env.Result())
	mc.AssertExpectations(t)
}

func TestGateway_PushPrompt(t *testing.T) {
	mc := &mockClient{}
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req MessageRequest) bool {
		return req.System[0].Text == pushPrompt && req.Model == "claude-haiku-4-5-20251001" && req.MaxTokens == 512
	})).Return(&MessageResponse{Content: []ContentBlock{{Type: "text", Text: `{"results": []}`}}}, nil)

	cfg := testCfg
	cfg.Model = "claude-haiku-4-5-20251001"
	cfg.MaxTokens = 512
	env, err := NewGateway(mc, cfg).Invoke(context.Background(), "Create", "push-agent")
	require.NoError(t, err)
	assert.Equal(t, `{"results": []}`, env.Result())
	mc.AssertExpectations(t)
}

func TestGateway_UnknownAgent(t *testing.T) {
	mc := &mockClient{}
	env, err := NewGateway(mc, testCfg).Invoke(context.Background(), "x", "nope")
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, "unknown agent: nope", env.FailureMessage(""))
	mc.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestGateway_EmptyTextHasNoResult(t *testing.T) {
	mc := &mockClient{}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{StopReason: "max_tokens"}, nil)

	env, err := NewGateway(mc, testCfg).Invoke(context.Background(), "x", "extract-agent")
	require.NoError(t, err)
	assert.False(t, env.HasResult())
}

func TestGateway_ClientErrorIsTransport(t *testing.T) {
	mc := &mockClient{}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	env, err := NewGateway(mc, testCfg).Invoke(context.Background(), "x", "push-agent")
	require.Error(t, err)
	assert.Nil(t, env)
	assert.Contains(t, err.Error(), "anthropic: invoke")
}

func TestGateway_OverloadedIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type":  "error",
			"error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		})
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	_, err := NewGateway(client, testCfg).Invoke(context.Background(), "x", "extract-agent")
	require.Error(t, err)
	assert.Equal(t, resilience.ClassUpstream, resilience.Classify(err))
}

func TestGateway_EndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageBody(`{"pipeline_status": "completed"}`)) //nolint:errcheck
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	env, err := NewGateway(client, testCfg).Invoke(context.Background(), "go", "extract-agent")
	require.NoError(t, err)
	assert.Equal(t, `{"pipeline_status": "completed"}`, env.Result())
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFences(tt.in))
	}
}
