// Package prompt is the registry of prompt templates used to drive artifact
// generation. Each template is keyed by artifact type, operation and style
// variant; style variants are separate bodies, never parameters of one body.
package prompt

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"text/template"

	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/store"
)

var (
	// ErrTemplateNotFound is returned when no template is registered for a key.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateFill is returned when a template cannot be parsed or a
	// placeholder it references has no value.
	ErrTemplateFill = errors.New("template fill failed")
)

// Placeholder names shared by every template. Callers build the value map with
// these keys.
const (
	WebsiteURL      = "website_url"
	WebsiteContent  = "website_content"
	Domain          = "domain"
	UserInstruction = "user_instruction"
	PriorArtifact   = "prior_artifact"
	ButtonURL       = "button_url"
	Width           = "width"
	Height          = "height"
	// Style is the splash page tone an autocomplete should continue in.
	Style           = "style"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Key identifies a template. Variant is "" for artifact types without styles.
type Key struct {
	ArtifactType string `json:"artifact_type"`
	Operation    string `json:"operation"`
	Variant      string `json:"variant,omitempty"`
}

func (k Key) String() string {
	if k.Variant == "" {
		return k.ArtifactType + "/" + k.Operation
	}
	return k.ArtifactType + "/" + k.Operation + "/" + k.Variant
}

// Template is a resolved prompt body plus the placeholders it declares.
type Template struct {
	Key
	Body         string
	Placeholders []string
	Overridden   bool
}

// Fill substitutes values into the template. Only declared placeholders are
// visible to the body; a declared placeholder absent from values, or a body
// that references an undeclared one, fails with ErrTemplateFill.
func (t *Template) Fill(values map[string]string) (string, error) {
	data := make(map[string]string, len(t.Placeholders))
	for _, name := range t.Placeholders {
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("%w: %s: no value for %q", ErrTemplateFill, t.Key, name)
		}
		data[name] = v
	}

	tmpl, err := template.New(t.Key.String()).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateFill, t.Key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateFill, t.Key, err)
	}
	return buf.String(), nil
}

// OverrideStore supplies administrator-edited template bodies.
// store.TemplateStore satisfies it.
type OverrideStore interface {
	Get(ctx context.Context, artifactType, operation, variant string) (*store.PromptTemplate, error)
}

// Registry resolves templates from the built-in set, preferring a stored
// override body when one exists.
type Registry struct {
	builtins  map[Key]builtin
	overrides OverrideStore
	log       *zap.Logger
}

// NewRegistry loads the embedded templates. overrides may be nil.
func NewRegistry(overrides OverrideStore, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		builtins:  make(map[Key]builtin, len(builtins)),
		overrides: overrides,
		log:       log,
	}
	for _, b := range builtins {
		body, err := templateFS.ReadFile("templates/" + b.file)
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", b.key, err)
		}
		b.body = string(body)
		r.builtins[b.key] = b
	}
	return r, nil
}

// Keys returns every built-in key in a stable order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.builtins))
	for k := range r.builtins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Builtin returns the built-in template for key, ignoring overrides.
func (r *Registry) Builtin(key Key) (*Template, error) {
	b, ok := r.builtins[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	return &Template{Key: key, Body: b.body, Placeholders: b.placeholders}, nil
}

// Resolve returns the template for the key. A stored override replaces the
// body; the declared placeholders always come from the built-in entry. An
// override lookup failure is logged and the built-in body is used.
func (r *Registry) Resolve(ctx context.Context, artifactType, operation, variant string) (*Template, error) {
	t, err := r.Builtin(Key{ArtifactType: artifactType, Operation: operation, Variant: variant})
	if err != nil {
		return nil, err
	}
	if r.overrides == nil {
		return t, nil
	}

	o, err := r.overrides.Get(ctx, artifactType, operation, variant)
	switch {
	case err == nil:
		t.Body = o.Content
		t.Overridden = true
	case errors.Is(err, store.ErrNotFound):
	default:
		r.log.Warn("template override lookup failed, using built-in",
			zap.String("template", t.Key.String()), zap.Error(err))
	}
	return t, nil
}

// Validate checks that body would fill successfully as the template for key.
func (r *Registry) Validate(key Key, body string) error {
	t, err := r.Builtin(key)
	if err != nil {
		return err
	}
	t.Body = body
	values := make(map[string]string, len(t.Placeholders))
	for _, name := range t.Placeholders {
		values[name] = ""
	}
	_, err = t.Fill(values)
	return err
}
