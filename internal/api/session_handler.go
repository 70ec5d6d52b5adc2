package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/undergrid/stagehand/internal/announce"
	"github.com/undergrid/stagehand/internal/api/shared"
	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/playback"
)

// SessionManager is the playback surface the session handler needs.
// Session lazily creates, Lookup fails on unknown IDs.
type SessionManager interface {
	Session(id string) (*playback.Session, error)
	Lookup(id string) (*playback.Session, error)
}

// SessionHandler handles playback session HTTP requests.
type SessionHandler struct {
	sessions SessionManager
	composer announce.Composer
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessions SessionManager,
	composer announce.Composer,
	logger *slog.Logger,
) *SessionHandler {
	if composer == nil {
		composer = announce.StaticComposer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessions, composer: composer, logger: logger}
}

// Enqueue handles POST /api/sessions/{id}/queue requests. The item starts
// playing immediately when the session is idle.
func (h *SessionHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	session, err := h.sessions.Session(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	session.Enqueue(domain.Item{
		Source: req.Source,
		Title:  req.Title,
		Volume: req.Volume,
	})
	w.WriteHeader(http.StatusAccepted)
}

// Announce handles POST /api/sessions/{id}/announce requests. The
// announcement interrupts the current track, which resumes afterwards from
// where it stopped.
func (h *SessionHandler) Announce(w http.ResponseWriter, r *http.Request) {
	var req AnnounceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	line := req.Text
	if line == "" && req.Title != "" {
		composed, err := h.composer.Compose(r.Context(), req.Title)
		if err != nil {
			h.logger.Warn("failed to compose announcement line",
				"title", req.Title,
				"error", err)
		} else {
			line = composed
		}
	}

	session, err := h.sessions.Session(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	session.Interrupt(domain.Item{
		Source:       req.Source,
		Title:        line,
		Announcement: true,
	})
	shared.RespondWithJSON(w, r, http.StatusAccepted, AnnounceResponse{Line: line})
}

// Stop handles POST /api/sessions/{id}/stop requests. It clears the queue
// and halts the current item.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	session.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// Skip handles POST /api/sessions/{id}/skip requests. Playback advances to
// the next queued item.
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	session.Skip()
	w.WriteHeader(http.StatusNoContent)
}

// Queue handles GET /api/sessions/{id}/queue requests.
func (h *SessionHandler) Queue(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	view := session.View()
	pending := view.Pending
	if pending == nil {
		pending = []string{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, QueueViewResponse{
		NowPlaying: view.NowPlaying,
		Pending:    pending,
	})
}

// GetVolume handles GET /api/sessions/{id}/volume requests.
func (h *SessionHandler) GetVolume(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, VolumeResponse{Volume: session.Volume()})
}

// SetVolume handles PUT /api/sessions/{id}/volume requests. The new volume
// applies from the next played item.
func (h *SessionHandler) SetVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	session, err := h.sessions.Session(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := session.SetVolume(req.Volume); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, VolumeResponse{Volume: session.Volume()})
}
