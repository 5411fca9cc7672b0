package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/store"
)

type templatesHandler struct {
	registry  *prompt.Registry
	templates *store.TemplateStore
	log       *zap.Logger
}

func registerTemplateRoutes(r chi.Router, registry *prompt.Registry, templates *store.TemplateStore, log *zap.Logger) {
	h := &templatesHandler{registry: registry, templates: templates, log: log}
	r.Get("/templates", h.List)
	r.Get("/templates/{artifact_type}/{operation}", h.Get)
	r.Put("/templates/{artifact_type}/{operation}", h.Update)
}

// List returns the effective template for every registered key.
// GET /v1/templates
func (h *templatesHandler) List(w http.ResponseWriter, r *http.Request) {
	keys := h.registry.Keys()
	resp := make([]TemplateResponse, 0, len(keys))
	for _, k := range keys {
		t, err := h.registry.Resolve(r.Context(), k.ArtifactType, k.Operation, k.Variant)
		if err != nil {
			h.log.Error("resolve template", zap.String("template", k.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "template configuration error", "TEMPLATE_ERROR")
			return
		}
		resp = append(resp, toTemplateResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns the effective template for one key.
// GET /v1/templates/{artifact_type}/{operation}?variant=
func (h *templatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.templateKey(w, r)
	if !ok {
		return
	}
	t, err := h.registry.Resolve(r.Context(), key.ArtifactType, key.Operation, key.Variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}

// Update stores an override body for one key. The body must fill with the
// key's declared placeholders.
// PUT /v1/templates/{artifact_type}/{operation}?variant=
func (h *templatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	key, ok := h.templateKey(w, r)
	if !ok {
		return
	}

	var body UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_REQUEST")
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required", "INVALID_REQUEST")
		return
	}
	if err := h.registry.Validate(key, body.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_TEMPLATE")
		return
	}

	if _, err := h.templates.Upsert(r.Context(), key.ArtifactType, key.Operation, key.Variant, body.Content); err != nil {
		writePersistenceError(w, h.log, "save template", err)
		return
	}
	h.log.Info("prompt template updated", zap.String("template", key.String()))

	t, err := h.registry.Resolve(r.Context(), key.ArtifactType, key.Operation, key.Variant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "template configuration error", "TEMPLATE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}

// templateKey builds a registry key from the URL, applying operation aliases
// and the artifact type's default variant. Unknown keys are a 400.
func (h *templatesHandler) templateKey(w http.ResponseWriter, r *http.Request) (prompt.Key, bool) {
	spec, ok := allowedType(w, r)
	if !ok {
		return prompt.Key{}, false
	}
	op, ok := generate.ParseOperation(chi.URLParam(r, "operation"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown operation "+chi.URLParam(r, "operation"), "INVALID_REQUEST")
		return prompt.Key{}, false
	}
	variant := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("variant")))
	if variant == "" {
		variant = spec.DefaultVariant()
	}
	key := prompt.Key{ArtifactType: string(spec.Type), Operation: string(op), Variant: variant}
	if _, err := h.registry.Builtin(key); err != nil {
		writeError(w, http.StatusBadRequest, "no template for "+key.String(), "INVALID_REQUEST")
		return prompt.Key{}, false
	}
	return key, true
}

func toTemplateResponse(t *prompt.Template) TemplateResponse {
	source := "default"
	if t.Overridden {
		source = "override"
	}
	return TemplateResponse{
		ArtifactType: t.ArtifactType,
		Operation:    t.Operation,
		StyleVariant: t.Variant,
		Placeholders: t.Placeholders,
		Content:      t.Body,
		Source:       source,
	}
}
