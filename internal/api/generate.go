package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/auth"
	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/metrics"
	"github.com/joestump/splashgen/internal/store"
)

// maxGenerateBody bounds a generate request; prior artifacts are whole HTML pages.
const maxGenerateBody = 5 << 20

// generateHandler runs generations and persists their results.
type generateHandler struct {
	generator Generator
	artifacts *store.ArtifactStore
	sessions  *scs.SessionManager
	log       *zap.Logger
}

func registerGenerateRoutes(r chi.Router, g Generator, artifacts *store.ArtifactStore, sm *scs.SessionManager, log *zap.Logger) {
	h := &generateHandler{generator: g, artifacts: artifacts, sessions: sm, log: log}
	r.Post("/generate", h.Generate)
}

// Generate creates or refines an artifact.
// POST /v1/generate
//
// A refine against an unknown prior_artifact_id is rejected with 404, and one
// against an artifact of another type with 400, before any generation runs.
// A refine without style_variant keeps the stored artifact's variant. The
// artifact row is written only after generation succeeded; a failed write is
// reported and the generated content discarded.
func (h *generateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_REQUEST")
		return
	}

	req := generate.Request{
		ArtifactType:    body.ArtifactType,
		Operation:       body.Operation,
		Variant:         body.StyleVariant,
		UserInstruction: body.UserInstruction,
		WebsiteURL:      body.WebsiteURL,
		PriorArtifact:   body.PriorArtifact,
		PriorArtifactID: body.PriorArtifactID,
		ButtonURL:       body.ButtonURL,
		Width:           body.Width,
		Height:          body.Height,
		Style:           body.StyleType,
	}

	spec, op, _, err := generate.Validate(req)
	if err != nil {
		writeGenerateError(w, h.log, err)
		return
	}

	if op == generate.Refine && spec.Persisted {
		prior, err := h.artifacts.GetByID(r.Context(), req.PriorArtifactID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "artifact not found", "NOT_FOUND")
			return
		}
		if err != nil {
			writePersistenceError(w, h.log, "load prior artifact", err)
			return
		}
		if prior.ArtifactType != string(spec.Type) {
			writeError(w, http.StatusBadRequest,
				"prior_artifact_id refers to a "+prior.ArtifactType+" artifact, not "+string(spec.Type),
				"INVALID_REQUEST")
			return
		}
		if strings.TrimSpace(req.Variant) == "" {
			req.Variant = prior.Variant
		}
	}

	res, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		writeGenerateError(w, h.log, err)
		return
	}

	resp := GenerateResponse{
		Content:      res.Content,
		ArtifactType: string(res.ArtifactType),
		Operation:    string(res.Operation),
		StyleVariant: res.Variant,
		Model:        res.Model,
	}

	if spec.Persisted {
		var a *store.Artifact
		if op == generate.Create {
			a, err = h.artifacts.Create(r.Context(), string(res.ArtifactType), res.Variant, res.Content, req.ButtonURL)
		} else {
			a, err = h.artifacts.Update(r.Context(), req.PriorArtifactID, string(res.ArtifactType), res.Variant, res.Content, req.ButtonURL)
		}
		if errors.Is(err, store.ErrArtifactTypeMismatch) {
			metrics.ArtifactWritesTotal.WithLabelValues(string(op), "type_mismatch").Inc()
			writeError(w, http.StatusBadRequest, "prior_artifact_id refers to another artifact type", "INVALID_REQUEST")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			metrics.ArtifactWritesTotal.WithLabelValues(string(op), "not_found").Inc()
			writeError(w, http.StatusNotFound, "artifact not found", "NOT_FOUND")
			return
		}
		if err != nil {
			metrics.ArtifactWritesTotal.WithLabelValues(string(op), "error").Inc()
			writePersistenceError(w, h.log, "save artifact", err)
			return
		}
		metrics.ArtifactWritesTotal.WithLabelValues(string(op), "success").Inc()
		auth.RecordArtifact(r.Context(), h.sessions, a.ID)
		resp.ID = a.ID
	}

	writeJSON(w, http.StatusOK, resp)
}
