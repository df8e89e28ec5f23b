// Package pipeline coordinates the extraction and push phases against the
// remote agents and reconciles their answers into history, review state
// and lifetime metrics.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/ledger"
	"github.com/sells-group/crm-autosync/internal/metrics"
	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/normalize"
	"github.com/sells-group/crm-autosync/internal/resilience"
	"github.com/sells-group/crm-autosync/internal/review"
	"github.com/sells-group/crm-autosync/internal/settings"
	"github.com/sells-group/crm-autosync/internal/store"
	"github.com/sells-group/crm-autosync/pkg/agent"
)

// Agents names the two agents the orchestrator invokes.
type Agents struct {
	ExtractionID string
	PushID       string
}

// DefaultAgents returns the production agent ids.
func DefaultAgents() Agents {
	return Agents{ExtractionID: model.ExtractionCoordinatorID, PushID: model.PushAgentID}
}

// Orchestrator owns the review state, the run ledger and the lifetime
// metrics. At most one extraction and one push may be in flight; a second
// call of the same kind is refused rather than queued.
type Orchestrator struct {
	gateway  agent.Gateway
	agents   Agents
	settings *settings.Store
	ledger   *ledger.Ledger
	metrics  *metrics.Tracker
	review   *review.Manager
	now      func() time.Time

	mu             sync.Mutex
	extracting     bool
	pushing        bool
	active         map[Phase]string
	summary        *model.ProcessingSummary
	pipelineStatus string
}

// New creates an Orchestrator whose durable state lives in st. Call Load
// before serving requests.
func New(gw agent.Gateway, st store.Store, agents Agents) *Orchestrator {
	if agents.ExtractionID == "" {
		agents.ExtractionID = model.ExtractionCoordinatorID
	}
	if agents.PushID == "" {
		agents.PushID = model.PushAgentID
	}
	return &Orchestrator{
		gateway:  gw,
		agents:   agents,
		settings: settings.New(st),
		ledger:   ledger.New(st),
		metrics:  metrics.New(st),
		review:   review.NewManager(),
		now:      time.Now,
		active:   make(map[Phase]string),
	}
}

// Load reads settings, history and metrics from the store.
func (o *Orchestrator) Load(ctx context.Context) {
	o.settings.Load(ctx)
	runs := o.ledger.Load(ctx)
	m := o.metrics.Load(ctx)
	zap.L().Info("pipeline: state loaded",
		zap.Int("runs", len(runs)),
		zap.Int("pending_review", m.PendingReview),
	)
}

// Settings returns the settings store.
func (o *Orchestrator) Settings() *settings.Store { return o.settings }

// Ledger returns the run history.
func (o *Orchestrator) Ledger() *ledger.Ledger { return o.ledger }

// Metrics returns the lifetime counters.
func (o *Orchestrator) Metrics() *metrics.Tracker { return o.metrics }

// Review returns the working set.
func (o *Orchestrator) Review() *review.Manager { return o.review }

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Processing     bool                     `json:"processing"`
	Pushing        bool                     `json:"pushing"`
	ActiveAgents   []model.Agent            `json:"active_agents"`
	PipelineStatus string                   `json:"pipeline_status,omitempty"`
	Summary        *model.ProcessingSummary `json:"summary,omitempty"`
}

// Status reports in-flight phases, the agents they are waiting on, and the
// outcome of the last extraction.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{
		Processing:     o.extracting,
		Pushing:        o.pushing,
		ActiveAgents:   []model.Agent{},
		PipelineStatus: o.pipelineStatus,
	}
	for _, p := range []Phase{PhaseExtract, PhasePush} {
		if id, ok := o.active[p]; ok {
			st.ActiveAgents = append(st.ActiveAgents, lookupAgent(id))
		}
	}
	if o.summary != nil {
		s := *o.summary
		st.Summary = &s
	}
	return st
}

func lookupAgent(id string) model.Agent {
	for _, a := range model.Agents {
		if a.ID == id {
			return a
		}
	}
	return model.Agent{ID: id, Name: id}
}

// begin claims the in-flight flag for phase. Extraction and push share one
// gate: while either is pending, both are refused with the error naming the
// pending phase. The returned func releases it, clearing the active agent
// before the flag.
func (o *Orchestrator) begin(phase Phase, agentID string) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.extracting:
		return nil, ErrExtractionInFlight
	case o.pushing:
		return nil, ErrPushInFlight
	}

	flag := &o.extracting
	if phase == PhasePush {
		flag = &o.pushing
	}
	*flag = true
	o.active[phase] = agentID

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.active, phase)
		*flag = false
	}, nil
}

// ExtractOutcome describes a successful extraction.
type ExtractOutcome struct {
	RunID      string                   `json:"run_id"`
	EmailCount int                      `json:"email_count"`
	Entries    int                      `json:"entries"`
	Status     string                   `json:"pipeline_status"`
	Summary    *model.ProcessingSummary `json:"summary,omitempty"`
	Message    string                   `json:"message"`
}

// Extract runs the extraction phase. Agent and transport failures are
// returned as *PhaseError and leave every piece of state untouched.
func (o *Orchestrator) Extract(ctx context.Context, filters ExtractFilters) (*ExtractOutcome, error) {
	done, err := o.begin(PhaseExtract, o.agents.ExtractionID)
	if err != nil {
		return nil, err
	}
	defer done()

	log := zap.L().With(zap.String("phase", string(PhaseExtract)), zap.String("agent_id", o.agents.ExtractionID))
	instruction := BuildExtractionInstruction(filters, o.settings.Get())
	log.Info("pipeline: extraction started")

	start := time.Now()
	env, err := o.gateway.Invoke(ctx, instruction, o.agents.ExtractionID)
	if err != nil {
		log.Error("pipeline: extraction transport failure",
			zap.String("class", string(resilience.Classify(err))),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &PhaseError{Phase: PhaseExtract, Kind: KindTransport, Message: msgExtractTransport, Err: err}
	}
	if !env.HasResult() {
		msg := env.FailureMessage(msgExtractFallback)
		log.Warn("pipeline: extraction failed", zap.String("error", msg))
		return nil, &PhaseError{Phase: PhaseExtract, Kind: KindAgent, Message: msg}
	}

	if driftErr := normalize.ExtractionDrift(normalize.Parse(env.Result())); driftErr != nil {
		log.Warn("pipeline: extraction payload drift", zap.Error(driftErr))
	}
	parsed := normalize.ParseExtraction(env.Result())

	var emails, succeeded, failed int
	if s := parsed.Summary; s != nil {
		emails = s.TotalEmailsProcessed
		succeeded = s.ValidatedCount
		failed = s.FlaggedCount + s.IncompleteCount
	}

	// The agent has answered; persist even if the caller is gone.
	persistCtx := context.WithoutCancel(ctx)

	o.review.Replace(parsed.Entries)
	o.mu.Lock()
	o.summary = parsed.Summary
	o.pipelineStatus = parsed.Status
	o.mu.Unlock()
	o.metrics.RecordExtraction(persistCtx, emails, len(parsed.Entries))

	run := ledger.NewRun(o.now(), emails, succeeded, failed, parsed.Status, parsed.Entries)
	o.ledger.Append(persistCtx, run)

	log.Info("pipeline: extraction complete",
		zap.String("run_id", run.ID),
		zap.Int("emails", emails),
		zap.Int("entries", len(parsed.Entries)),
		zap.String("pipeline_status", parsed.Status),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &ExtractOutcome{
		RunID:      run.ID,
		EmailCount: emails,
		Entries:    len(parsed.Entries),
		Status:     parsed.Status,
		Summary:    parsed.Summary,
		Message:    fmt.Sprintf("Successfully processed %d emails and extracted %d CRM entries.", emails, len(parsed.Entries)),
	}, nil
}

// PushOutcome describes a successful push.
type PushOutcome struct {
	Selected  int                `json:"selected"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []model.PushResult `json:"results"`
	Message   string             `json:"message"`
}

// Push sends the selected entries of the filtered view to the push agent.
// It returns ErrNothingSelected without contacting the agent when the
// selection is empty. On failure the selection and metrics are kept.
func (o *Orchestrator) Push(ctx context.Context) (*PushOutcome, error) {
	done, err := o.begin(PhasePush, o.agents.PushID)
	if err != nil {
		return nil, err
	}
	defer done()

	selected := o.review.Selected()
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}

	log := zap.L().With(zap.String("phase", string(PhasePush)), zap.String("agent_id", o.agents.PushID))
	instruction, err := BuildPushInstruction(selected)
	if err != nil {
		return nil, err
	}
	o.review.SetPushResults(nil)
	log.Info("pipeline: push started", zap.Int("selected", len(selected)))

	start := time.Now()
	env, err := o.gateway.Invoke(ctx, instruction, o.agents.PushID)
	if err != nil {
		log.Error("pipeline: push transport failure",
			zap.String("class", string(resilience.Classify(err))),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &PhaseError{Phase: PhasePush, Kind: KindTransport, Message: msgPushTransport, Err: err}
	}
	if !env.HasResult() {
		msg := env.FailureMessage(msgPushFallback)
		log.Warn("pipeline: push failed", zap.String("error", msg))
		return nil, &PhaseError{Phase: PhasePush, Kind: KindAgent, Message: msg}
	}

	if driftErr := normalize.PushDrift(normalize.Parse(env.Result())); driftErr != nil {
		log.Warn("pipeline: push payload drift", zap.Error(driftErr))
	}
	parsed := normalize.ParsePush(env.Result())
	succeeded, failed := parsed.Counts()

	o.review.SetPushResults(parsed.Results)
	o.metrics.RecordPush(context.WithoutCancel(ctx), failed, len(selected))
	o.review.ClearSelection()

	log.Info("pipeline: push complete",
		zap.Int("selected", len(selected)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &PushOutcome{
		Selected:  len(selected),
		Succeeded: succeeded,
		Failed:    failed,
		Results:   parsed.Results,
		Message:   fmt.Sprintf("Pushed %d entries: %d succeeded, %d failed.", len(selected), succeeded, failed),
	}, nil
}
