// Package server exposes the engine over HTTP.
//
// ROUTES:
//   - POST /v1/analyze   run the truncation pipeline for a text
//   - GET  /v1/simulate  websocket stream of simulation snapshots
//   - GET  /v1/stats     engine counters
//   - GET  /healthz      liveness probe
//
// Middleware chain (applied in order): panic recovery, request ID,
// request logging.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/compresr/truncation-engine/internal/config"
	"github.com/compresr/truncation-engine/internal/engine"
	"github.com/compresr/truncation-engine/internal/simulation"
)

// maxRequestBody caps analyze request bodies (2MB of text is far past
// any reasonable document).
const maxRequestBody = 2 * 1024 * 1024

// Server wires the engine to an http.Server.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	http   *http.Server
}

// New creates a server around eng using cfg.
func New(cfg *config.Config, eng *engine.Engine) *Server {
	s := &Server{cfg: cfg, engine: eng}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", methodOnly(http.MethodPost, s.handleAnalyze))
	mux.HandleFunc("/v1/simulate", methodOnly(http.MethodGet, s.handleSimulate))
	mux.HandleFunc("/v1/stats", methodOnly(http.MethodGet, s.handleStats))
	mux.HandleFunc("/healthz", methodOnly(http.MethodGet, s.handleHealth))

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain(mux, panicRecovery, requestID, requestLogging),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler exposes the full middleware-wrapped handler, mainly so tests
// can serve it without binding a port.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.Server.Port).Msg("truncation engine listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	analysis, err := s.engine.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("analyze failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats().Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// simulationConfig maps the configured timing onto a controller.
func (s *Server) simulationConfig(speedMs int) simulation.Config {
	if speedMs <= 0 {
		speedMs = s.cfg.Simulation.SpeedMs
	}
	return simulation.Config{
		SpeedMs:     speedMs,
		SettleDelay: s.cfg.Simulation.SettleDelay,
	}
}

// methodOnly restricts a handler to a single HTTP method, standing in
// for the "METHOD /path" ServeMux patterns that require Go 1.22+.
// Matching that mux's behavior, GET also admits HEAD.
func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
