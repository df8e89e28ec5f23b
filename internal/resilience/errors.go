// Package resilience classifies gateway transport failures. Nothing in this
// module retries automatically; the class only decides how a failure is
// logged.
package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Class labels a transport failure for logs.
type Class string

const (
	ClassNone      Class = ""
	ClassTimeout   Class = "timeout"
	ClassNetwork   Class = "network"
	ClassThrottled Class = "throttled"
	ClassUpstream  Class = "upstream"
	ClassPermanent Class = "permanent"
)

// TransientError marks a failure that a user-initiated re-run may clear,
// such as a 429, a 5xx or a dropped connection.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err with the HTTP status that produced it, or 0.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"no such host",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"unexpected eof",
}

// IsTransient reports whether err, or anything it wraps, looks like a
// failure that could succeed on a later attempt.
func IsTransient(err error) bool {
	c := Classify(err)
	return c != ClassNone && c != ClassPermanent
}

// Classify maps err onto a Class. A nil error is ClassNone.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	var te *TransientError
	if errors.As(err, &te) {
		switch {
		case te.StatusCode == http.StatusTooManyRequests:
			return ClassThrottled
		case te.StatusCode == http.StatusRequestTimeout, te.StatusCode == http.StatusGatewayTimeout:
			return ClassTimeout
		case te.StatusCode >= 500:
			return ClassUpstream
		}
		return ClassNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return ClassNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientMessages {
		if strings.Contains(msg, p) {
			return ClassNetwork
		}
	}
	return ClassPermanent
}

// IsTransientHTTPStatus reports whether an agent endpoint status code
// indicates a temporary condition.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
