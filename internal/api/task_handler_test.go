package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/tracker"
)

// mockTracker implements TaskTracker for handler tests.
type mockTracker struct {
	submitID   uuid.UUID
	submitErr  error
	pollResult tracker.PollResult
	purged     []uuid.UUID

	lastKind    domain.TaskKind
	lastPayload json.RawMessage
}

func (m *mockTracker) Submit(kind domain.TaskKind, payload json.RawMessage) (uuid.UUID, error) {
	m.lastKind = kind
	m.lastPayload = payload
	if m.submitErr != nil {
		return uuid.Nil, m.submitErr
	}
	return m.submitID, nil
}

func (m *mockTracker) Poll(id uuid.UUID) tracker.PollResult {
	return m.pollResult
}

func (m *mockTracker) Purge(id uuid.UUID) {
	m.purged = append(m.purged, id)
}

func newTaskRouter(m *mockTracker) http.Handler {
	h := NewTaskHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Post("/api/tasks", h.SubmitTask)
	r.Get("/api/tasks/{id}", h.GetTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	return r
}

func TestSubmitTask(t *testing.T) {
	id := uuid.New()
	m := &mockTracker{submitID: id}
	router := newTaskRouter(m)

	body := bytes.NewBufferString(`{"kind":"generate","payload":{"prompt":"a red barn"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks", body))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitTaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, id.String(), resp.TaskID)
	assert.Equal(t, domain.TaskKindGenerate, m.lastKind)
	assert.JSONEq(t, `{"prompt":"a red barn"}`, string(m.lastPayload))
}

func TestSubmitTaskValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad_json", body: `{"kind":`},
		{name: "missing_kind", body: `{"payload":{}}`},
		{name: "unknown_kind", body: `{"kind":"upscale","payload":{}}`},
		{name: "missing_payload", body: `{"kind":"generate"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTaskRouter(&mockTracker{submitID: uuid.New()})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(
				http.MethodPost, "/api/tasks", bytes.NewBufferString(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitTaskQueueFull(t *testing.T) {
	router := newTaskRouter(&mockTracker{submitErr: tracker.ErrQueueFull})

	body := bytes.NewBufferString(`{"kind":"generate","payload":{}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks", body))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "queue is full")
}

func TestGetTaskReturnsArtifact(t *testing.T) {
	m := &mockTracker{pollResult: tracker.PollResult{
		State:    tracker.PollStateFinal,
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
		Final:    true,
		Revision: 3,
	}}
	router := newTaskRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/api/tasks/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(tracker.PollStateFinal), resp.State)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, resp.Data)
	assert.True(t, resp.Final)
	assert.Equal(t, uint64(3), resp.Revision)
}

func TestGetTaskUnknownID(t *testing.T) {
	m := &mockTracker{pollResult: tracker.PollResult{State: tracker.PollStateUnknown}}
	router := newTaskRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/api/tasks/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskInvalidID(t *testing.T) {
	router := newTaskRouter(&mockTracker{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	m := &mockTracker{}
	router := newTaskRouter(m)
	id := uuid.New()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodDelete, "/api/tasks/"+id.String(), nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, m.purged, 1)
	assert.Equal(t, id, m.purged[0])
}
