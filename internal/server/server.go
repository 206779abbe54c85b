// Package server exposes the routing engine over HTTP. Remote hosts post
// prompts to /v1/route and get the full decision back; /v1/decisions/stream
// upgrades to a websocket that mirrors every decision as it is made.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/normanking/switchyard/internal/config"
	"github.com/normanking/switchyard/internal/engine"
	"github.com/normanking/switchyard/internal/journal"
	"github.com/normanking/switchyard/internal/policy"
)

// Server hosts the routing API.
type Server struct {
	cfg      config.ServerConfig
	engine   *engine.Engine
	policies *policy.Store
	journal  *journal.Store // nil when the journal is disabled
	stream   *streamHub
	httpSrv  *http.Server
}

// New creates a server around the given engine and policy store. jnl may be
// nil to disable decision journaling.
func New(cfg config.ServerConfig, eng *engine.Engine, policies *policy.Store, jnl *journal.Store) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   eng,
		policies: policies,
		journal:  jnl,
		stream:   newStreamHub(),
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}
	return s
}

// Handler returns the routing API mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/route", s.handleRoute)
	mux.HandleFunc("GET /v1/config", s.handleConfig)
	mux.HandleFunc("POST /v1/policy/reload", s.handleReload)
	mux.HandleFunc("GET /v1/decisions/recent", s.handleRecentDecisions)
	mux.HandleFunc("GET /v1/decisions/stream", s.stream.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.stream.start()
	zlog.Info().Str("addr", s.cfg.Addr()).Msg("routing API listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stream.stop()
	return s.httpSrv.Shutdown(ctx)
}

// RouteRequest is the JSON body for POST /v1/route.
type RouteRequest struct {
	Prompt               string   `json:"prompt"`
	Strategy             string   `json:"strategy,omitempty"`
	Agent                string   `json:"agent,omitempty"`
	SessionContextTokens int      `json:"sessionContextTokens,omitempty"`
	TouchedFiles         []string `json:"touchedFiles,omitempty"`
}

// RouteResponse is the JSON response for POST /v1/route.
type RouteResponse struct {
	RequestID string          `json:"requestId"`
	Decision  engine.Decision `json:"decision"`
}

// HandleRoute runs model selection for one request.
// POST /v1/route
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// An agent name selects its mapped strategy unless the request names
	// one explicitly.
	strategy := req.Strategy
	if strategy == "" && req.Agent != "" {
		strategy = s.policies.Active().StrategyForAgent(req.Agent)
	}

	start := time.Now()
	decision := s.engine.SelectModel(engine.Request{
		Prompt:               req.Prompt,
		Strategy:             strategy,
		SessionContextTokens: req.SessionContextTokens,
		TouchedFiles:         req.TouchedFiles,
	})

	requestID := uuid.NewString()
	if s.journal != nil {
		if id, err := s.journal.Record(engine.Request{Prompt: req.Prompt, Strategy: strategy}, decision); err != nil {
			zlog.Warn().Err(err).Msg("failed to journal decision")
		} else {
			requestID = id
		}
	}

	zlog.Info().
		Str("request_id", requestID).
		Str("strategy", decision.Strategy).
		Str("task_type", decision.TaskType).
		Str("complexity", decision.FinalComplexity.String()).
		Str("model", decision.PrimaryModel.String()).
		Dur("took", time.Since(start)).
		Msg("routed")

	s.stream.broadcast(RouteResponse{RequestID: requestID, Decision: decision})
	writeJSON(w, http.StatusOK, RouteResponse{RequestID: requestID, Decision: decision})
}

// ConfigResponse summarizes the active policy snapshot.
// GET /v1/config
type ConfigResponse struct {
	Strategies      []string `json:"strategies"`
	DefaultStrategy string   `json:"defaultStrategy"`
	DefaultModel    string   `json:"defaultModel"`
	TaskTypes       []string `json:"taskTypes"`
	Overrides       int      `json:"overrides"`
	Agents          int      `json:"agents"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	p := s.policies.Active()

	taskTypes := make([]string, 0, len(p.TaskTypes))
	for _, tt := range p.TaskTypes {
		taskTypes = append(taskTypes, tt.Name)
	}

	writeJSON(w, http.StatusOK, ConfigResponse{
		Strategies:      p.Strategies,
		DefaultStrategy: p.DefaultStrategy,
		DefaultModel:    p.DefaultModel,
		TaskTypes:       taskTypes,
		Overrides:       len(p.Overrides),
		Agents:          len(p.Agents),
	})
}

// handleReload re-reads the policy document. A rejected document leaves the
// active snapshot in place and reports the validation error.
// POST /v1/policy/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.policies.Reload(); err != nil {
		zlog.Warn().Err(err).Msg("policy reload rejected")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": "rejected",
			"error":  err.Error(),
		})
		return
	}
	zlog.Info().Msg("policy reloaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRecentDecisions returns the newest journal entries.
// GET /v1/decisions/recent
func (s *Server) handleRecentDecisions(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "decision journal is disabled", http.StatusNotFound)
		return
	}
	entries, err := s.journal.Recent(50)
	if err != nil {
		http.Error(w, "failed to read journal", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"strategies": len(s.policies.Active().Strategies),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("failed to encode response")
	}
}
