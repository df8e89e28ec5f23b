package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassNone},
		{"plain", errors.New("invalid agent id"), ClassPermanent},
		{"429", NewTransientError(errors.New("slow down"), 429), ClassThrottled},
		{"503", NewTransientError(errors.New("unavailable"), 503), ClassUpstream},
		{"504", NewTransientError(errors.New("gateway"), 504), ClassTimeout},
		{"no status", NewTransientError(errors.New("dropped"), 0), ClassNetwork},
		{"wrapped by eris", eris.Wrap(NewTransientError(errors.New("busy"), 502), "agent: invoke"), ClassUpstream},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ClassTimeout},
		{"net timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, ClassTimeout},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), ClassNetwork},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ClassNetwork},
		{"message", errors.New("Post \"http://x\": unexpected EOF"), ClassNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.True(t, IsTransient(NewTransientError(errors.New("x"), 500)))
	assert.True(t, IsTransient(fmt.Errorf("write: %w", syscall.ECONNABORTED)))
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root")
	te := NewTransientError(inner, 503)
	assert.Equal(t, "root", te.Error())
	assert.ErrorIs(t, te, inner)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "%d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "%d", code)
	}
}
