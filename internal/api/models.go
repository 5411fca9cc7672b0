package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/store"
)

type modelsHandler struct {
	models       *store.ModelConfigStore
	defaultModel string
	log          *zap.Logger
}

func registerModelRoutes(r chi.Router, models *store.ModelConfigStore, defaultModel string, log *zap.Logger) {
	h := &modelsHandler{models: models, defaultModel: defaultModel, log: log}
	r.Get("/models", h.List)
	r.Get("/models/{artifact_type}", h.Get)
	r.Put("/models/{artifact_type}", h.Update)
}

// List returns the effective model configuration of every artifact type.
// GET /v1/models
func (h *modelsHandler) List(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.models.List(r.Context())
	if err != nil {
		writePersistenceError(w, h.log, "list model configs", err)
		return
	}
	byType := make(map[string]*store.ModelConfig, len(overrides))
	for _, m := range overrides {
		byType[m.ArtifactType] = m
	}

	resp := make([]ModelConfigResponse, 0, len(generate.Types()))
	for _, spec := range generate.Types() {
		resp = append(resp, modelConfigResponse(spec, h.defaultModel, byType[string(spec.Type)]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns the effective model configuration of one artifact type.
// GET /v1/models/{artifact_type}
func (h *modelsHandler) Get(w http.ResponseWriter, r *http.Request) {
	spec, ok := allowedType(w, r)
	if !ok {
		return
	}
	m, err := h.models.Get(r.Context(), string(spec.Type))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writePersistenceError(w, h.log, "get model config", err)
		return
	}
	writeJSON(w, http.StatusOK, modelConfigResponse(spec, h.defaultModel, m))
}

// Update stores a model override for an artifact type.
// PUT /v1/models/{artifact_type}
func (h *modelsHandler) Update(w http.ResponseWriter, r *http.Request) {
	spec, ok := allowedType(w, r)
	if !ok {
		return
	}

	var body UpdateModelConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_REQUEST")
		return
	}
	body.ModelName = strings.TrimSpace(body.ModelName)
	if body.ModelName == "" {
		writeError(w, http.StatusBadRequest, "model_name is required", "INVALID_REQUEST")
		return
	}
	if body.Temperature == nil {
		writeError(w, http.StatusBadRequest, "temperature is required", "INVALID_REQUEST")
		return
	}

	m, err := h.models.Upsert(r.Context(), string(spec.Type), body.ModelName, *body.Temperature)
	if errors.Is(err, store.ErrInvalidTemperature) {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	if err != nil {
		writePersistenceError(w, h.log, "save model config", err)
		return
	}
	h.log.Info("model config updated",
		zap.String("artifact_type", m.ArtifactType),
		zap.String("model", m.ModelName),
		zap.Float64("temperature", m.Temperature))
	writeJSON(w, http.StatusOK, modelConfigResponse(spec, h.defaultModel, m))
}

// allowedType resolves the {artifact_type} URL parameter, writing 400 for
// anything outside the known artifact types.
func allowedType(w http.ResponseWriter, r *http.Request) (generate.TypeSpec, bool) {
	name := chi.URLParam(r, "artifact_type")
	spec, ok := generate.LookupType(name)
	if !ok {
		allowed := make([]string, 0, len(generate.Types()))
		for _, s := range generate.Types() {
			allowed = append(allowed, string(s.Type))
		}
		writeError(w, http.StatusBadRequest,
			"unknown artifact_type "+name+"; allowed: "+strings.Join(allowed, ", "), "INVALID_REQUEST")
		return generate.TypeSpec{}, false
	}
	return spec, true
}

func modelConfigResponse(spec generate.TypeSpec, defaultModel string, m *store.ModelConfig) ModelConfigResponse {
	if m == nil {
		d := spec.ModelDefaultsFor(defaultModel)
		return ModelConfigResponse{
			ArtifactType: string(spec.Type),
			ModelName:    d.Model,
			Temperature:  d.Temperature,
			Source:       "default",
		}
	}
	updated := m.UpdatedAt
	return ModelConfigResponse{
		ArtifactType: m.ArtifactType,
		ModelName:    m.ModelName,
		Temperature:  m.Temperature,
		Source:       "override",
		UpdatedAt:    &updated,
	}
}
