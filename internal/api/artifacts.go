package api

import (
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/auth"
	"github.com/joestump/splashgen/internal/store"
)

type artifactsHandler struct {
	artifacts *store.ArtifactStore
	sessions  *scs.SessionManager
	log       *zap.Logger
}

func registerArtifactRoutes(r chi.Router, artifacts *store.ArtifactStore, sm *scs.SessionManager, log *zap.Logger) {
	h := &artifactsHandler{artifacts: artifacts, sessions: sm, log: log}
	r.Get("/artifacts/{id}", h.Get)
	r.Get("/artifacts/{id}/preview", h.Preview)
	r.Get("/session/artifacts", h.Session)
}

// Get returns a stored artifact.
// GET /v1/artifacts/{id}
func (h *artifactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toArtifactResponse(a))
}

// Preview serves the stored content as a page.
// GET /v1/artifacts/{id}/preview
func (h *artifactsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r)
	if !ok {
		return
	}
	contentType := "text/html; charset=utf-8"
	if a.ArtifactType == "email" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	// Generated markup runs in a sandbox so its scripts cannot reach this origin.
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(a.Content))
}

// Session lists the artifacts created or refined in the caller's session.
// GET /v1/session/artifacts
func (h *artifactsHandler) Session(w http.ResponseWriter, r *http.Request) {
	ids := auth.SessionArtifacts(r.Context(), h.sessions)
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, SessionArtifactsResponse{IDs: ids})
}

func (h *artifactsHandler) load(w http.ResponseWriter, r *http.Request) (*store.Artifact, bool) {
	a, err := h.artifacts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "artifact not found", "NOT_FOUND")
		return nil, false
	}
	if err != nil {
		writePersistenceError(w, h.log, "load artifact", err)
		return nil, false
	}
	return a, true
}

func toArtifactResponse(a *store.Artifact) *ArtifactResponse {
	return &ArtifactResponse{
		ID:           a.ID,
		ArtifactType: a.ArtifactType,
		StyleVariant: a.Variant,
		Content:      a.Content,
		ButtonURL:    a.ButtonURL,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
