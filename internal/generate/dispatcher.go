// Package generate turns a generation request into artifact content: it
// validates the request, gathers website context, fills a prompt template,
// calls the completion backend and cleans up the answer. It never persists.
package generate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/llm"
	"github.com/joestump/splashgen/internal/metrics"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/scrape"
	"github.com/joestump/splashgen/internal/store"
)

const (
	defaultScrapeTimeout     = 30 * time.Second
	defaultCompletionTimeout = 180 * time.Second
)

// Request is one generation call.
type Request struct {
	ArtifactType    string
	Operation       string
	Variant         string
	UserInstruction string
	WebsiteURL      string
	PriorArtifact   string
	PriorArtifactID string
	ButtonURL       string
	Width           float64
	Height          float64
	// Style is the splash page tone for a splash_page autocomplete. Empty
	// means the splash page default variant.
	Style           string
}

// Result is the generated content plus how it was produced.
type Result struct {
	Content      string
	ArtifactType ArtifactType
	Operation    Operation
	Variant      string
	Model        string
	// Extracted is true when an HTML document was cut out of the raw
	// completion.
	Extracted bool
}

// Templates resolves prompt templates. *prompt.Registry satisfies it.
type Templates interface {
	Resolve(ctx context.Context, artifactType, operation, variant string) (*prompt.Template, error)
}

// ModelConfigs looks up stored model overrides. *store.ModelConfigStore
// satisfies it.
type ModelConfigs interface {
	Get(ctx context.Context, artifactType string) (*store.ModelConfig, error)
}

// Options bounds the two slow collaborator calls. Model, when set, replaces
// the built-in model id of every artifact type; stored overrides still win.
type Options struct {
	ScrapeTimeout     time.Duration
	CompletionTimeout time.Duration
	Model             string
}

// Dispatcher runs generation requests. It is safe for concurrent use.
type Dispatcher struct {
	provider  scrape.Provider
	templates Templates
	models    ModelConfigs
	completer llm.Completer
	opts      Options
	log       *zap.Logger
}

// NewDispatcher wires a dispatcher. models may be nil, in which case the
// built-in model defaults are always used.
func NewDispatcher(provider scrape.Provider, templates Templates, models ModelConfigs, completer llm.Completer, opts Options, log *zap.Logger) *Dispatcher {
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = defaultScrapeTimeout
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = defaultCompletionTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		provider:  provider,
		templates: templates,
		models:    models,
		completer: completer,
		opts:      opts,
		log:       log,
	}
}

// validated is a request whose enums have been resolved.
type validated struct {
	Request
	spec      TypeSpec
	operation Operation
}

// Validate checks req without touching any collaborator and returns the
// normalized operation and variant.
func Validate(req Request) (TypeSpec, Operation, string, error) {
	v, err := validate(req)
	if err != nil {
		return TypeSpec{}, "", "", err
	}
	return v.spec, v.operation, v.Variant, nil
}

func validate(req Request) (*validated, error) {
	spec, ok := LookupType(req.ArtifactType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown artifact_type %q", ErrInvalidRequest, req.ArtifactType)
	}
	op, ok := ParseOperation(req.Operation)
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidRequest, req.Operation)
	}
	if op == Refine && spec.Type == Autocomplete {
		return nil, fmt.Errorf("%w: %s supports create only", ErrInvalidRequest, spec.Type)
	}

	req.Variant = strings.ToLower(strings.TrimSpace(req.Variant))
	if req.Variant == "" {
		req.Variant = spec.DefaultVariant()
	}
	if !spec.HasVariant(req.Variant) {
		if len(spec.Variants) == 0 {
			return nil, fmt.Errorf("%w: %s has no style variants", ErrInvalidRequest, spec.Type)
		}
		return nil, fmt.Errorf("%w: style_variant must be one of %s", ErrInvalidRequest, strings.Join(spec.Variants, ", "))
	}

	if spec.Type != Autocomplete && strings.TrimSpace(req.UserInstruction) == "" {
		return nil, fmt.Errorf("%w: user_instruction is required", ErrInvalidRequest)
	}

	switch op {
	case Refine:
		if strings.TrimSpace(req.PriorArtifact) == "" {
			return nil, fmt.Errorf("%w: prior_artifact is required for refine", ErrInvalidRequest)
		}
		if spec.Persisted && strings.TrimSpace(req.PriorArtifactID) == "" {
			return nil, fmt.Errorf("%w: prior_artifact_id is required for refine", ErrInvalidRequest)
		}
	case Create:
		if spec.FetchesWebsite {
			if strings.TrimSpace(req.WebsiteURL) == "" {
				return nil, fmt.Errorf("%w: website_url is required", ErrInvalidRequest)
			}
			if err := checkURL(req.WebsiteURL); err != nil {
				return nil, fmt.Errorf("%w: website_url: %v", ErrInvalidRequest, err)
			}
		}
	}

	if req.ButtonURL != "" {
		if err := checkURL(req.ButtonURL); err != nil {
			return nil, fmt.Errorf("%w: button_url: %v", ErrInvalidRequest, err)
		}
	}
	req.Style = strings.ToLower(strings.TrimSpace(req.Style))
	if req.Style != "" {
		splash, _ := LookupType(string(SplashPage))
		if !splash.HasVariant(req.Style) {
			return nil, fmt.Errorf("%w: style_type must be one of %s", ErrInvalidRequest, strings.Join(splash.Variants, ", "))
		}
	}
	if req.Width < 0 || req.Height < 0 {
		return nil, fmt.Errorf("%w: width and height must not be negative", ErrInvalidRequest)
	}

	return &validated{Request: req, spec: spec, operation: op}, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// Generate produces artifact content for req. Errors wrap ErrInvalidRequest,
// ErrUpstreamFetch, prompt.ErrTemplateNotFound, prompt.ErrTemplateFill or
// ErrBackend.
func (d *Dispatcher) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := d.generate(ctx, req)
	metrics.GenerationsTotal.WithLabelValues(metricType(req.ArtifactType), metricOperation(req.Operation), outcome(err)).Inc()
	if err == nil {
		metrics.GenerationDuration.WithLabelValues(string(res.ArtifactType)).Observe(time.Since(start).Seconds())
	}
	return res, err
}

func (d *Dispatcher) generate(ctx context.Context, req Request) (*Result, error) {
	v, err := validate(req)
	if err != nil {
		return nil, err
	}
	log := d.log.With(
		zap.String("artifact_type", string(v.spec.Type)),
		zap.String("operation", string(v.operation)),
		zap.String("variant", v.Variant),
	)

	res := &Result{ArtifactType: v.spec.Type, Operation: v.operation, Variant: v.Variant}

	if v.spec.Type == Autocomplete && strings.TrimSpace(v.UserInstruction) == "" {
		return res, nil
	}

	values := map[string]string{
		prompt.WebsiteURL:      "",
		prompt.WebsiteContent:  "",
		prompt.Domain:          "",
		prompt.UserInstruction: v.UserInstruction,
		prompt.PriorArtifact:   "",
		prompt.ButtonURL:       v.ButtonURL,
		prompt.Width:           formatDimension(v.Width, v.spec.DefaultWidth),
		prompt.Height:          formatDimension(v.Height, v.spec.DefaultHeight),
		prompt.Style:           splashStyle(v.Style),
	}

	switch {
	case v.operation == Refine:
		values[prompt.PriorArtifact] = v.PriorArtifact
	case v.spec.FetchesWebsite:
		page, err := d.fetch(ctx, v.WebsiteURL)
		if err != nil {
			log.Warn("website fetch failed", zap.String("url", v.WebsiteURL), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
		}
		values[prompt.WebsiteURL] = page.SourceURL
		values[prompt.WebsiteContent] = page.Body
		values[prompt.Domain] = page.Domain
	}

	tmpl, err := d.templates.Resolve(ctx, string(v.spec.Type), string(v.operation), v.Variant)
	if err != nil {
		return nil, err
	}
	filled, err := tmpl.Fill(values)
	if err != nil {
		return nil, err
	}

	model := d.modelConfig(ctx, v.spec, log)
	res.Model = model.Model

	completion, err := d.complete(ctx, llm.Request{Model: model.Model, Temperature: model.Temperature, Prompt: filled})
	if err != nil {
		log.Error("completion failed", zap.String("model", model.Model), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	if !v.spec.HTML {
		res.Content = strings.TrimSpace(completion.Text)
		return res, nil
	}

	content, ok := ExtractHTML(completion.Text)
	res.Content = content
	res.Extracted = ok
	if ok {
		metrics.HTMLExtractionsTotal.WithLabelValues("matched").Inc()
		log.Debug("extracted html document", zap.Int("raw_len", len(completion.Text)), zap.Int("html_len", len(content)))
	} else {
		metrics.HTMLExtractionsTotal.WithLabelValues("fallback").Inc()
		log.Warn("no html document in completion, returning raw text", zap.Int("raw_len", len(completion.Text)))
	}
	return res, nil
}

func (d *Dispatcher) fetch(ctx context.Context, websiteURL string) (*scrape.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.ScrapeTimeout)
	defer cancel()
	return d.provider.Fetch(ctx, strings.TrimSpace(websiteURL))
}

func (d *Dispatcher) complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.CompletionTimeout)
	defer cancel()
	return d.completer.Complete(ctx, req)
}

// modelConfig returns the stored override for the type, or its default when
// none is stored or the lookup fails.
func (d *Dispatcher) modelConfig(ctx context.Context, spec TypeSpec, log *zap.Logger) ModelDefaults {
	defaults := spec.ModelDefaultsFor(d.opts.Model)
	if d.models == nil {
		return defaults
	}
	m, err := d.models.Get(ctx, string(spec.Type))
	switch {
	case err == nil:
		return ModelDefaults{Model: m.ModelName, Temperature: m.Temperature}
	case errors.Is(err, store.ErrNotFound):
	default:
		log.Warn("model config lookup failed, using default", zap.Error(err))
	}
	return defaults
}

func splashStyle(style string) string {
	if style != "" {
		return style
	}
	splash, _ := LookupType(string(SplashPage))
	return splash.DefaultVariant()
}

func formatDimension(v, def float64) string {
	if v == 0 {
		v = def
	}
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrUpstreamFetch):
		return "fetch_error"
	case errors.Is(err, prompt.ErrTemplateNotFound), errors.Is(err, prompt.ErrTemplateFill):
		return "template_error"
	default:
		return "backend_error"
	}
}

// metricType keeps label cardinality bounded for unknown input.
func metricType(name string) string {
	if _, ok := LookupType(name); ok {
		return name
	}
	return "unknown"
}

func metricOperation(name string) string {
	if op, ok := ParseOperation(name); ok {
		return string(op)
	}
	return "unknown"
}
