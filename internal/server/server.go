// Package server exposes the orchestrator over HTTP. It is the single owner
// of a long-lived Orchestrator and its review session.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/export"
	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/pipeline"
	"github.com/sells-group/crm-autosync/internal/review"
)

// Server routes HTTP requests to an Orchestrator.
type Server struct {
	orch           *pipeline.Orchestrator
	allowedOrigins []string
}

// New creates a Server. An empty origin list allows every origin.
func New(orch *pipeline.Orchestrator, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{orch: orch, allowedOrigins: allowedOrigins}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", s.status)
	r.Get("/agents", s.agents)
	r.Get("/metrics", s.metrics)

	r.Post("/extract", s.extract)
	r.Post("/push", s.push)
	r.Get("/push/results", s.pushResults)

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", s.listEntries)
		r.Patch("/{index}", s.updateEntry)
	})

	r.Route("/selection", func(r chi.Router) {
		r.Get("/", s.selection)
		r.Delete("/", s.clearSelection)
		r.Post("/all", s.toggleAll)
		r.Post("/{index}", s.toggle)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.listHistory)
		r.Get("/export", s.exportHistory)
		r.Get("/{id}", s.getRun)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", s.getSettings)
		r.Put("/", s.putSettings)
		r.Post("/reset", s.resetSettings)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return eris.Wrap(err, "server: decode body")
	}
	return nil
}

func indexParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, eris.Wrap(err, "server: parse index")
	}
	return i, nil
}

// writePhaseError maps orchestrator errors onto status codes.
func writePhaseError(w http.ResponseWriter, err error) {
	var pe *pipeline.PhaseError
	switch {
	case errors.Is(err, pipeline.ErrExtractionInFlight), errors.Is(err, pipeline.ErrPushInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": pe.Message, "kind": string(pe.Kind)})
	default:
		zap.L().Error("server: unexpected pipeline error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *Server) agents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Agents)
}

type metricsResponse struct {
	model.Metrics
	ErrorRate string `json:"errorRate"`
}

func (s *Server) metrics(w http.ResponseWriter, _ *http.Request) {
	m := s.orch.Metrics().Snapshot()
	writeJSON(w, http.StatusOK, metricsResponse{Metrics: m, ErrorRate: m.ErrorRate()})
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var filters pipeline.ExtractFilters
	if err := decodeBody(r, &filters); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := s.orch.Extract(r.Context(), filters)
	if err != nil {
		writePhaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) push(w http.ResponseWriter, r *http.Request) {
	out, err := s.orch.Push(r.Context())
	if errors.Is(err, pipeline.ErrNothingSelected) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "nothing to push"})
		return
	}
	if err != nil {
		writePhaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) pushResults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Review().PushResults())
}

type entriesResponse struct {
	Filter   model.StatusFilter `json:"filter"`
	Total    int                `json:"total"`
	Entries  []model.CRMEntry   `json:"entries"`
	Selected []int              `json:"selected"`
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	rv := s.orch.Review()
	if raw, ok := r.URL.Query()["status"]; ok {
		f, err := model.ParseStatusFilter(raw[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rv.SetFilter(f)
	}
	writeJSON(w, http.StatusOK, entriesResponse{
		Filter:   rv.Filter(),
		Total:    rv.Len(),
		Entries:  rv.Filtered(),
		Selected: rv.SelectedIndices(),
	})
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.orch.Review().UpdateField(i, req.Field, req.Value)
	switch {
	case errors.Is(err, review.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, review.ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) writeSelection(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string][]int{"selected": s.orch.Review().SelectedIndices()})
}

func (s *Server) selection(w http.ResponseWriter, _ *http.Request) {
	s.writeSelection(w)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	i, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	if err := s.orch.Review().Toggle(i); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeSelection(w)
}

func (s *Server) toggleAll(w http.ResponseWriter, _ *http.Request) {
	s.orch.Review().ToggleAll()
	s.writeSelection(w)
}

func (s *Server) clearSelection(w http.ResponseWriter, _ *http.Request) {
	s.orch.Review().ClearSelection()
	s.writeSelection(w)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runs := s.orch.Ledger().Search(q.Get("q"), q.Get("status"))
	if runs == nil {
		runs = []model.ProcessingRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.orch.Ledger().Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) exportHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runs := s.orch.Ledger().Search(q.Get("q"), q.Get("status"))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="crm-autosync-history.xlsx"`)
	if err := export.WriteHistory(w, runs); err != nil {
		zap.L().Error("server: export history", zap.Error(err))
	}
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Settings().Get())
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	next := s.orch.Settings().Get()
	if err := decodeBody(r, &next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := next.CheckRanges(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.orch.Settings().Save(r.Context(), next)
	writeJSON(w, http.StatusOK, s.orch.Settings().Get())
}

func (s *Server) resetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Settings().Reset(r.Context()))
}
