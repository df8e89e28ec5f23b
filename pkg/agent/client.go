package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/crm-autosync/internal/resilience"
)

const (
	defaultBaseURL = "http://localhost:3000/api/agent"
	defaultTimeout = 5 * time.Minute
)

// Request is the body POSTed to the agent endpoint.
type Request struct {
	Message string `json:"message"`
	AgentID string `json:"agent_id"`
	UserID  string `json:"user_id,omitempty"`
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the agent endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIKey sends the key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithUserID tags every request with a user id.
func WithUserID(id string) Option {
	return func(c *Client) {
		c.userID = id
	}
}

// WithTimeout bounds a single invocation.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps invocations per second. A non-positive rate disables
// the limiter.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client is a Gateway speaking to an agent platform over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	http    *http.Client
	limiter *rate.Limiter
}

var _ Gateway = (*Client)(nil)

// NewClient creates an agent platform client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Invoke sends instruction to agentID. Any well-formed envelope is returned
// as-is, including ones attached to an error status. Everything else is a
// transport error.
func (c *Client) Invoke(ctx context.Context, instruction, agentID string) (*Envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "agent: rate limit wait")
		}
	}

	body, err := json.Marshal(Request{Message: instruction, AgentID: agentID, UserID: c.userID})
	if err != nil {
		return nil, eris.Wrap(err, "agent: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "agent: create request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(resilience.NewTransientError(err, 0), "agent: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(resilience.NewTransientError(err, resp.StatusCode), "agent: read response")
	}

	zap.L().Debug("agent: response",
		zap.String("agent_id", agentID),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	env, decodeErr := decodeEnvelope(respBody)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case ok && decodeErr == nil:
		return env, nil
	case !ok && decodeErr == nil && (env.Error != "" || env.Response != nil):
		env.Success = false
		return env, nil
	case ok:
		return nil, eris.Wrap(decodeErr, "agent: decode envelope")
	}

	statusErr := eris.Errorf("agent: unexpected status %d: %s", resp.StatusCode, truncate(respBody, 512))
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
	}
	return nil, statusErr
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
