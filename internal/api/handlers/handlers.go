// Package handlers implements the HTTP handlers for the driveagent API:
// agent task execution, sync triggering and inspection, and corpus stats.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/internal/agent"
	"github.com/driveagent/driveagent/internal/ingest"
	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Orchestrator *agent.Orchestrator
	Pipeline     *ingest.Pipeline
	Store        *vectorstore.Store
}

// New creates a new Handlers instance with all dependencies.
func New(orch *agent.Orchestrator, pipeline *ingest.Pipeline, store *vectorstore.Store) *Handlers {
	return &Handlers{Orchestrator: orch, Pipeline: pipeline, Store: store}
}

// ── Agent ────────────────────────────────────────────────────

type taskRequest struct {
	Prompt        string `json:"prompt"`
	MaxIterations int    `json:"maxIterations,omitempty"`
}

// ExecuteTask runs the agent loop for one user prompt.
func (h *Handlers) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Orchestrator.ExecuteTask(r.Context(), req.Prompt, req.MaxIterations)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

// ── Sync ─────────────────────────────────────────────────────

// TriggerSync runs one full sync pass and reports the delta. Returns 409
// when a sync is already in flight.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.Pipeline == nil {
		respondError(w, http.StatusServiceUnavailable, "Drive sync is not configured")
		return
	}

	report, err := h.Pipeline.Run(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrSyncRunning) {
			respondError(w, http.StatusConflict, "A sync is already running")
			return
		}
		log.Error().Err(err).Msg("manual sync failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}

// SyncStatus reports the record of the last completed sync, if any.
func (h *Handlers) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.Pipeline == nil {
		respondError(w, http.StatusServiceUnavailable, "Drive sync is not configured")
		return
	}

	record, err := h.Pipeline.LastRecord()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    nil,
			"message": "No sync has completed yet",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    record,
	})
}

// ── Documents ────────────────────────────────────────────────

// DocumentStats reports the corpus size and collection name.
func (h *Handlers) DocumentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetStats(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// ── Helpers ──────────────────────────────────────────────────

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrMaxIterations):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrModelFailure):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}
