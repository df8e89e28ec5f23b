package pipeline

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrExtractionInFlight is returned when an extraction or push is started
	// while an extraction is pending.
	ErrExtractionInFlight = eris.New("pipeline: extraction already in flight")
	// ErrPushInFlight is returned when an extraction or push is started while
	// a push is pending.
	ErrPushInFlight = eris.New("pipeline: push already in flight")
	// ErrNothingSelected is returned by Push when the selection is empty.
	ErrNothingSelected = eris.New("pipeline: nothing selected")
)

// Phase names one of the two remote calls.
type Phase string

const (
	PhaseExtract Phase = "extract"
	PhasePush    Phase = "push"
)

// ErrorKind separates failures reported by the agent from calls that never
// completed.
type ErrorKind string

const (
	KindAgent     ErrorKind = "agent"
	KindTransport ErrorKind = "transport"
)

// User-facing messages for failed phases.
const (
	msgExtractFallback  = "Processing failed. Please try again."
	msgExtractTransport = "Network error occurred. Please try again."
	msgPushFallback     = "Push failed. Please try again."
	msgPushTransport    = "Network error while pushing to CRM."
)

// PhaseError aborts a phase without mutating state. Message is what the
// user sees.
type PhaseError struct {
	Phase   Phase
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("pipeline: %s %s failure: %s", e.Phase, e.Kind, e.Message)
}

func (e *PhaseError) Unwrap() error { return e.Err }
