package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/undergrid/stagehand/internal/api/shared"
	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/tracker"
)

// TaskTracker is the tracker surface the task handler needs.
type TaskTracker interface {
	Submit(kind domain.TaskKind, payload json.RawMessage) (uuid.UUID, error)
	Poll(id uuid.UUID) tracker.PollResult
	Purge(id uuid.UUID)
}

// TaskHandler handles generation task HTTP requests.
type TaskHandler struct {
	tracker TaskTracker
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(t TaskTracker, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{tracker: t, logger: logger}
}

// SubmitTask handles POST /api/tasks requests. Generation happens
// asynchronously; the response only acknowledges queueing.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	id, err := h.tracker.Submit(domain.TaskKind(req.Kind), req.Payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("task submitted",
		"task_id", id,
		"kind", req.Kind,
		"trace_id", shared.GetTraceID(r.Context()))

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{
		TaskID: id.String(),
	})
}

// GetTask handles GET /api/tasks/{id} requests. It returns the freshest
// artifact for the task, interim or final, without blocking.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	result := h.tracker.Poll(id)
	if result.State == tracker.PollStateUnknown {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskStatusResponse{
		TaskID:   id.String(),
		State:    string(result.State),
		Data:     result.Data,
		Final:    result.Final,
		Revision: result.Revision,
		Error:    result.Err,
	})
}

// DeleteTask handles DELETE /api/tasks/{id} requests. Purging an unknown
// task is a no-op, so the response is 204 either way.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	h.tracker.Purge(id)
	w.WriteHeader(http.StatusNoContent)
}
