package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/interfaces"
)

// RunHandler serves collection run history and on-demand runs
type RunHandler struct {
	runStorage interfaces.RunStorage
	trigger    interfaces.CollectionTrigger
	logger     arbor.ILogger
}

// NewRunHandler creates a new RunHandler. A nil trigger disables POST /api/runs.
func NewRunHandler(runStorage interfaces.RunStorage, trigger interfaces.CollectionTrigger, logger arbor.ILogger) *RunHandler {
	return &RunHandler{
		runStorage: runStorage,
		trigger:    trigger,
		logger:     logger,
	}
}

// RunsHandler dispatches /api/runs by method
func (h *RunHandler) RunsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListHandler(w, r)
	case http.MethodPost:
		h.TriggerHandler(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// TriggerHandler handles POST /api/runs by starting a collection in the background.
// Progress is visible through GET /api/runs once the run is recorded.
func (h *RunHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.trigger == nil {
		WriteError(w, http.StatusServiceUnavailable, "collection trigger unavailable")
		return
	}

	if !h.trigger.RunNow() {
		WriteError(w, http.StatusConflict, "a collection run is already in progress")
		return
	}

	h.logger.Info().Str("remote", r.RemoteAddr).Msg("Collection run triggered over HTTP")
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ListHandler handles GET /api/runs?limit=
func (h *RunHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, ok := GetIntParam(r, "limit", 20)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	runs, err := h.runStorage.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	WriteJSON(w, http.StatusOK, runs)
}

// GetHandler handles GET /api/runs/{id}
func (h *RunHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "run id is required")
		return
	}

	run, err := h.runStorage.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			WriteError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		WriteError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	WriteJSON(w, http.StatusOK, run)
}
