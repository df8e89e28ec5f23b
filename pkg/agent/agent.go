// Package agent is the client side of the agent platform: it sends a
// natural-language instruction to a named agent and returns the envelope the
// platform answers with.
package agent

import (
	"context"
)

// Gateway invokes remote agents. A non-nil error means the call itself could
// not complete. Agent-reported failures come back as an Envelope with
// Success set to false.
type Gateway interface {
	Invoke(ctx context.Context, instruction, agentID string) (*Envelope, error)
}

// Envelope is the success/failure wrapper around an agent's answer.
type Envelope struct {
	Success  bool      `json:"success"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Response carries the agent-defined result. Result is untrusted: it may be
// an object, a JSON-encoded string, or anything else.
type Response struct {
	Status  string `json:"status,omitempty"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result returns the response payload, or nil when there is none.
func (e *Envelope) Result() any {
	if e == nil || e.Response == nil {
		return nil
	}
	return e.Response.Result
}

// HasResult reports whether the envelope is a success carrying a non-empty
// payload. Null, empty strings, false and zero count as empty.
func (e *Envelope) HasResult() bool {
	if e == nil || !e.Success {
		return false
	}
	switch v := e.Result().(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	}
	return true
}

// FailureMessage picks the message shown for a failed call: the envelope's
// error, then the response message, then fallback.
func (e *Envelope) FailureMessage(fallback string) string {
	if e == nil {
		return fallback
	}
	if e.Error != "" {
		return e.Error
	}
	if e.Response != nil && e.Response.Message != "" {
		return e.Response.Message
	}
	return fallback
}
