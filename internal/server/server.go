// Package server exposes the monitor over HTTP: insight ingestion, session
// management, retrospective queries, a WebSocket assessment stream, and
// Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/hearthwatch/hearthwatch/internal/service"
	"github.com/hearthwatch/hearthwatch/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server handles the HTTP surface of the monitor.
type Server struct {
	monitor *service.Monitor
	hub     *Hub
	logger  *slog.Logger
}

// New creates a server and subscribes its WebSocket hub to the assessment
// stream.
func New(monitor *service.Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		monitor: monitor,
		hub:     NewHub(logger),
		logger:  logger,
	}
	monitor.Subscribe(s.hub.Broadcast)
	return s
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /insights", s.handleAppend)
	mux.HandleFunc("GET /sessions", s.handleSessions)
	mux.HandleFunc("GET /sessions/{id}/timeline", s.handleTimeline)
	mux.HandleFunc("GET /sessions/{id}/scenarios", s.handleScenarios)
	mux.HandleFunc("POST /sessions/{id}/close", s.handleClose)
	mux.HandleFunc("GET /query", s.handleQuery)
	mux.HandleFunc("POST /acknowledge", s.handleAcknowledge)
	mux.HandleFunc("GET /ws/assessments", s.hub.ServeWS)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return LoggingMiddleware(s.logger)(mux)
}

// Shutdown disconnects WebSocket subscribers.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var record models.InsightRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	id, err := s.monitor.Append(r.Context(), record)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Sessions())
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := s.monitor.Session(sessionID); !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	records := s.monitor.Timeline(sessionID, r.URL.Query().Get("source"))
	if records == nil {
		records = []models.InsightRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := s.monitor.Session(sessionID); !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, s.monitor.ScenarioStates(sessionID))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !s.monitor.CloseSession(sessionID) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	q := r.URL.Query().Get("q")
	if sessionID == "" || q == "" {
		writeError(w, http.StatusBadRequest, "session and q parameters are required")
		return
	}

	result, err := s.monitor.Query(r.Context(), sessionID, q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.Records == nil {
		result.Records = []models.InsightRecord{}
	}
	writeJSON(w, http.StatusOK, result)
}

type acknowledgeRequest struct {
	SessionID string              `json:"session_id"`
	Scenario  models.ScenarioKind `json:"scenario"`
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if req.SessionID == "" || !req.Scenario.Valid() {
		writeError(w, http.StatusBadRequest, "session_id and a valid scenario are required")
		return
	}

	acknowledged := s.monitor.Acknowledge(req.SessionID, req.Scenario)
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": acknowledged})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
