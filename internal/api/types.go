package api

import "time"

// GenerateRequest is the request body for POST /v1/generate.
type GenerateRequest struct {
	ArtifactType    string  `json:"artifact_type"`
	Operation       string  `json:"operation"`
	StyleVariant    string  `json:"style_variant,omitempty"`
	UserInstruction string  `json:"user_instruction"`
	WebsiteURL      string  `json:"website_url,omitempty"`
	PriorArtifact   string  `json:"prior_artifact,omitempty"`
	PriorArtifactID string  `json:"prior_artifact_id,omitempty"`
	ButtonURL       string  `json:"button_url,omitempty"`
	Width           float64 `json:"width,omitempty"`
	Height          float64 `json:"height,omitempty"`
	// StyleType is the splash page tone for a splash_page autocomplete.
	StyleType       string  `json:"style_type,omitempty"`
}

// GenerateResponse is returned by POST /v1/generate. ID is set for persisted
// artifact types.
type GenerateResponse struct {
	Content      string `json:"content"`
	ID           string `json:"id,omitempty"`
	ArtifactType string `json:"artifact_type"`
	Operation    string `json:"operation"`
	StyleVariant string `json:"style_variant,omitempty"`
	Model        string `json:"model,omitempty"`
}

// ArtifactResponse is the JSON representation of a stored artifact.
type ArtifactResponse struct {
	ID           string    `json:"id"`
	ArtifactType string    `json:"artifact_type"`
	StyleVariant string    `json:"style_variant,omitempty"`
	Content      string    `json:"content"`
	ButtonURL    string    `json:"button_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionArtifactsResponse lists the artifacts produced in the caller's session.
type SessionArtifactsResponse struct {
	IDs []string `json:"ids"`
}

// ModelConfigResponse is the effective model configuration of an artifact type.
// Source is "default" or "override".
type ModelConfigResponse struct {
	ArtifactType string     `json:"artifact_type"`
	ModelName    string     `json:"model_name"`
	Temperature  float64    `json:"temperature"`
	Source       string     `json:"source"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// UpdateModelConfigRequest is the request body for PUT /v1/models/{artifact_type}.
type UpdateModelConfigRequest struct {
	ModelName   string   `json:"model_name"`
	Temperature *float64 `json:"temperature"`
}

// TemplateResponse is the effective prompt template for a key.
type TemplateResponse struct {
	ArtifactType string   `json:"artifact_type"`
	Operation    string   `json:"operation"`
	StyleVariant string   `json:"style_variant,omitempty"`
	Placeholders []string `json:"placeholders"`
	Content      string   `json:"content"`
	Source       string   `json:"source"`
}

// UpdateTemplateRequest is the request body for PUT /v1/templates/{artifact_type}/{operation}.
type UpdateTemplateRequest struct {
	Content string `json:"content"`
}

// ServiceResponse is returned by GET /.
type ServiceResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}
