package generate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joestump/splashgen/internal/llm"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/scrape"
	"github.com/joestump/splashgen/internal/store"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	page  *scrape.Page
	err   error
}

func (f *fakeProvider) Fetch(ctx context.Context, url string) (*scrape.Page, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &scrape.Page{Domain: "example.com", SourceURL: url, Body: "Example Co sells widgets."}, nil
}

type fakeCompleter struct {
	mu       sync.Mutex
	calls    int
	requests []llm.Request
	text     string
	err      error
	block    bool
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text, Model: req.Model}, nil
}

func (f *fakeCompleter) lastRequest(t *testing.T) llm.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("completer was not called")
	}
	return f.requests[len(f.requests)-1]
}

type fakeModels struct {
	configs map[string]*store.ModelConfig
	err     error
}

func (f *fakeModels) Get(_ context.Context, artifactType string) (*store.ModelConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.configs[artifactType]; ok {
		return m, nil
	}
	return nil, store.ErrNotFound
}

const htmlAnswer = "Sure! Here is your page:\n<!DOCTYPE html><html><body><h1>Law</h1></body></html>\nLet me know if you need changes."

func newTestDispatcher(t *testing.T, p *fakeProvider, c *fakeCompleter, m ModelConfigs) *Dispatcher {
	t.Helper()
	reg, err := prompt.NewRegistry(nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewDispatcher(p, reg, m, c, Options{ScrapeTimeout: time.Second, CompletionTimeout: time.Second}, nil)
}

func TestGenerate_SplashPageCreate(t *testing.T) {
	p := &fakeProvider{page: &scrape.Page{Domain: "example.com", SourceURL: "https://example.com", Body: "..."}}
	c := &fakeCompleter{text: htmlAnswer}
	d := newTestDispatcher(t, p, c, nil)

	res, err := d.Generate(context.Background(), Request{
		ArtifactType:    "splash_page",
		Operation:       "create",
		Variant:         "professional",
		UserInstruction: "law firm landing page",
		WebsiteURL:      "https://example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(res.Content, "<!DOCTYPE html>") {
		t.Errorf("content does not start with doctype: %q", res.Content)
	}
	if !strings.HasSuffix(res.Content, "</html>") {
		t.Errorf("content does not end with </html>: %q", res.Content)
	}
	if !res.Extracted {
		t.Error("Extracted = false")
	}
	if p.calls != 1 || c.calls != 1 {
		t.Errorf("calls provider=%d completer=%d, want 1/1", p.calls, c.calls)
	}

	req := c.lastRequest(t)
	if req.Model != "o3-mini" {
		t.Errorf("model = %q, want o3-mini", req.Model)
	}
	for _, want := range []string{"law firm landing page", "example.com", "https://example.com"} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_RefineSkipsProvider(t *testing.T) {
	prior := "<!DOCTYPE html><html><body>" + strings.Repeat("x", 500-len("<!DOCTYPE html><html><body></body></html>")) + "</body></html>"
	if len(prior) != 500 {
		t.Fatalf("prior length = %d", len(prior))
	}
	p := &fakeProvider{}
	c := &fakeCompleter{text: "<!DOCTYPE html><html><body><button style=\"background:red\">Go</button></body></html>"}
	d := newTestDispatcher(t, p, c, nil)

	res, err := d.Generate(context.Background(), Request{
		ArtifactType:    "splash_page",
		Operation:       "refine",
		UserInstruction: "make the button red",
		PriorArtifact:   prior,
		PriorArtifactID: "a1",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0", p.calls)
	}
	if res.Content == prior || !strings.HasPrefix(res.Content, "<!DOCTYPE html>") {
		t.Errorf("unexpected content %q", res.Content)
	}
	if res.Variant != "professional" {
		t.Errorf("variant = %q, want default professional", res.Variant)
	}
	if !strings.Contains(c.lastRequest(t).Prompt, prior) {
		t.Error("prompt does not carry the prior artifact")
	}
}

func TestGenerate_RefineWithoutPriorIsInvalid(t *testing.T) {
	cases := []Request{
		{ArtifactType: "splash_page", Operation: "refine", UserInstruction: "x", PriorArtifactID: "a1"},
		{ArtifactType: "email", Operation: "update", UserInstruction: "x", PriorArtifact: "   ", PriorArtifactID: "a1"},
		{ArtifactType: "banner", Operation: "refine", UserInstruction: "x", PriorArtifact: "<html></html>"},
		{ArtifactType: "autocomplete", Operation: "refine", UserInstruction: "x", PriorArtifact: "y"},
	}
	for _, req := range cases {
		p := &fakeProvider{}
		c := &fakeCompleter{text: "ok"}
		d := newTestDispatcher(t, p, c, nil)
		_, err := d.Generate(context.Background(), req)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%+v: err = %v, want ErrInvalidRequest", req, err)
		}
		if p.calls != 0 || c.calls != 0 {
			t.Errorf("%+v: calls provider=%d completer=%d, want 0/0", req, p.calls, c.calls)
		}
	}
}

func TestGenerate_ProviderErrorNeverReachesBackend(t *testing.T) {
	p := &fakeProvider{err: errors.New("HTTP 503 for https://down.example")}
	c := &fakeCompleter{text: "ok"}
	d := newTestDispatcher(t, p, c, nil)

	for _, typ := range []string{"splash_page", "email", "banner", "blurb"} {
		_, err := d.Generate(context.Background(), Request{
			ArtifactType:    typ,
			Operation:       "create",
			UserInstruction: "promo",
			WebsiteURL:      "https://down.example",
		})
		if !errors.Is(err, ErrUpstreamFetch) {
			t.Errorf("%s: err = %v, want ErrUpstreamFetch", typ, err)
		}
		if err != nil && !strings.Contains(err.Error(), "HTTP 503") {
			t.Errorf("%s: err %q lost the provider message", typ, err)
		}
	}
	if c.calls != 0 {
		t.Errorf("completer calls = %d, want 0", c.calls)
	}
}

func TestGenerate_InvalidBeforeNetwork(t *testing.T) {
	cases := map[string]Request{
		"unknown type":      {ArtifactType: "poster", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com"},
		"unknown operation": {ArtifactType: "email", Operation: "delete", UserInstruction: "x", WebsiteURL: "https://example.com"},
		"unknown variant":   {ArtifactType: "email", Operation: "create", Variant: "rude", UserInstruction: "x", WebsiteURL: "https://example.com"},
		"variant on banner": {ArtifactType: "banner", Operation: "create", Variant: "casual", UserInstruction: "x", WebsiteURL: "https://example.com"},
		"missing url":       {ArtifactType: "blurb", Operation: "create", UserInstruction: "x"},
		"bad url scheme":    {ArtifactType: "blurb", Operation: "create", UserInstruction: "x", WebsiteURL: "file:///etc/passwd"},
		"missing host":      {ArtifactType: "blurb", Operation: "create", UserInstruction: "x", WebsiteURL: "https://"},
		"bad button url":    {ArtifactType: "splash_page", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com", ButtonURL: "javascript:alert(1)"},
		"no instruction":    {ArtifactType: "email", Operation: "create", WebsiteURL: "https://example.com"},
		"negative width":    {ArtifactType: "banner", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com", Width: -1},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			p := &fakeProvider{}
			c := &fakeCompleter{text: "ok"}
			d := newTestDispatcher(t, p, c, nil)
			_, err := d.Generate(context.Background(), req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
			if p.calls != 0 || c.calls != 0 {
				t.Errorf("calls provider=%d completer=%d, want 0/0", p.calls, c.calls)
			}
		})
	}
}

func TestGenerate_OperationAliases(t *testing.T) {
	c := &fakeCompleter{text: "Subject: Hi\n\nBody"}
	d := newTestDispatcher(t, &fakeProvider{}, c, nil)
	for alias, want := range map[string]Operation{"start_over": Create, "generate": Create, "CREATE": Create} {
		res, err := d.Generate(context.Background(), Request{
			ArtifactType: "email", Operation: alias, UserInstruction: "x", WebsiteURL: "https://example.com",
		})
		if err != nil {
			t.Fatalf("%s: %v", alias, err)
		}
		if res.Operation != want {
			t.Errorf("%s: operation = %q, want %q", alias, res.Operation, want)
		}
	}
}

func TestGenerate_TextTypesSkipExtraction(t *testing.T) {
	c := &fakeCompleter{text: "\n  Subject: Big news <!DOCTYPE html><html></html>\n"}
	d := newTestDispatcher(t, &fakeProvider{}, c, nil)
	res, err := d.Generate(context.Background(), Request{
		ArtifactType: "email", Operation: "create", Variant: "salesy", UserInstruction: "x", WebsiteURL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Content != "Subject: Big news <!DOCTYPE html><html></html>" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Extracted {
		t.Error("Extracted = true for a text artifact")
	}
	if got := c.lastRequest(t); got.Model != "gpt-4o" || got.Temperature != 0.5 {
		t.Errorf("model = %s@%v, want gpt-4o@0.5", got.Model, got.Temperature)
	}
}

func TestGenerate_HTMLFallback(t *testing.T) {
	c := &fakeCompleter{text: "I cannot produce HTML today."}
	d := newTestDispatcher(t, &fakeProvider{}, c, nil)
	res, err := d.Generate(context.Background(), Request{
		ArtifactType: "banner", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Content != "I cannot produce HTML today." || res.Extracted {
		t.Errorf("got %q extracted=%v", res.Content, res.Extracted)
	}
}

func TestGenerate_Dimensions(t *testing.T) {
	c := &fakeCompleter{text: htmlAnswer}
	d := newTestDispatcher(t, &fakeProvider{}, c, nil)

	if _, err := d.Generate(context.Background(), Request{
		ArtifactType: "blurb", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com",
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p := c.lastRequest(t).Prompt; !strings.Contains(p, "257.328 x 450.961") {
		t.Errorf("blurb prompt missing default dimensions")
	}

	if _, err := d.Generate(context.Background(), Request{
		ArtifactType: "banner", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com", Width: 300, Height: 250,
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p := c.lastRequest(t).Prompt; !strings.Contains(p, "300 x 250") {
		t.Errorf("banner prompt missing requested dimensions")
	}
}

func TestGenerate_ModelOverride(t *testing.T) {
	c := &fakeCompleter{text: htmlAnswer}
	models := &fakeModels{configs: map[string]*store.ModelConfig{
		"splash_page": {ArtifactType: "splash_page", ModelName: "gpt-4.1", Temperature: 0.7},
	}}
	d := newTestDispatcher(t, &fakeProvider{}, c, models)

	res, err := d.Generate(context.Background(), Request{
		ArtifactType: "splash_page", Operation: "create", Variant: "casual", UserInstruction: "x", WebsiteURL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := c.lastRequest(t); got.Model != "gpt-4.1" || got.Temperature != 0.7 {
		t.Errorf("model = %s@%v, want gpt-4.1@0.7", got.Model, got.Temperature)
	}
	if res.Model != "gpt-4.1" {
		t.Errorf("result model = %q", res.Model)
	}
}

func TestGenerate_ModelLookupFailureUsesDefault(t *testing.T) {
	c := &fakeCompleter{text: "suggestion"}
	d := newTestDispatcher(t, &fakeProvider{}, c, &fakeModels{err: errors.New("db down")})
	if _, err := d.Generate(context.Background(), Request{
		ArtifactType: "autocomplete", Operation: "create", Variant: "email", UserInstruction: "Announce our",
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := c.lastRequest(t); got.Model != "gpt-4o" || got.Temperature != 0.2 {
		t.Errorf("model = %s@%v, want gpt-4o@0.2", got.Model, got.Temperature)
	}
}

func TestGenerate_AutocompleteEmptyInstruction(t *testing.T) {
	p := &fakeProvider{}
	c := &fakeCompleter{text: "should not be used"}
	d := newTestDispatcher(t, p, c, nil)
	res, err := d.Generate(context.Background(), Request{ArtifactType: "autocomplete", Operation: "create", UserInstruction: "  "})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Content != "" || c.calls != 0 || p.calls != 0 {
		t.Errorf("content=%q completer=%d provider=%d", res.Content, c.calls, p.calls)
	}
	if res.Variant != "splash_page" {
		t.Errorf("variant = %q, want splash_page", res.Variant)
	}
}

func TestGenerate_BackendError(t *testing.T) {
	cause := errors.New("rate limited")
	d := newTestDispatcher(t, &fakeProvider{}, &fakeCompleter{err: cause}, nil)
	_, err := d.Generate(context.Background(), Request{
		ArtifactType: "email", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com",
	})
	if !errors.Is(err, ErrBackend) || !errors.Is(err, cause) {
		t.Errorf("err = %v, want ErrBackend wrapping cause", err)
	}
}

func TestGenerate_BackendTimeout(t *testing.T) {
	reg, err := prompt.NewRegistry(nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	d := NewDispatcher(&fakeProvider{}, reg, nil, &fakeCompleter{block: true},
		Options{ScrapeTimeout: time.Second, CompletionTimeout: 20 * time.Millisecond}, nil)
	_, err = d.Generate(context.Background(), Request{
		ArtifactType: "email", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com",
	})
	if !errors.Is(err, ErrBackend) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want ErrBackend wrapping DeadlineExceeded", err)
	}
}

type brokenTemplates struct{}

func (brokenTemplates) Resolve(_ context.Context, a, o, v string) (*prompt.Template, error) {
	return &prompt.Template{
		Key:          prompt.Key{ArtifactType: a, Operation: o, Variant: v},
		Body:         "{{.nonexistent}}",
		Placeholders: []string{prompt.UserInstruction},
	}, nil
}

func TestGenerate_TemplateFillError(t *testing.T) {
	c := &fakeCompleter{text: "x"}
	d := NewDispatcher(&fakeProvider{}, brokenTemplates{}, nil, c, Options{}, nil)
	_, err := d.Generate(context.Background(), Request{
		ArtifactType: "email", Operation: "create", UserInstruction: "x", WebsiteURL: "https://example.com",
	})
	if !errors.Is(err, prompt.ErrTemplateFill) {
		t.Errorf("err = %v, want ErrTemplateFill", err)
	}
	if c.calls != 0 {
		t.Errorf("completer calls = %d, want 0", c.calls)
	}
}

func TestParseOperation(t *testing.T) {
	for in, want := range map[string]Operation{"create": Create, "start_over": Create, "generate": Create, "refine": Refine, "update": Refine, " Update ": Refine} {
		got, ok := ParseOperation(in)
		if !ok || got != want {
			t.Errorf("ParseOperation(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseOperation("delete"); ok {
		t.Error("ParseOperation(delete) ok")
	}
}

func TestGenerate_ConfiguredModelReplacesDefaults(t *testing.T) {
	reg, err := prompt.NewRegistry(nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	c := &fakeCompleter{text: htmlAnswer}
	models := &fakeModels{configs: map[string]*store.ModelConfig{
		"email": {ArtifactType: "email", ModelName: "claude-haiku-4-5", Temperature: 0.4},
	}}
	d := NewDispatcher(&fakeProvider{}, reg, models, c, Options{Model: "claude-sonnet-4-5"}, nil)

	if _, err := d.Generate(context.Background(), Request{
		ArtifactType: "banner", Operation: "create", UserInstruction: "sale", WebsiteURL: "https://example.com",
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := c.lastRequest(t); got.Model != "claude-sonnet-4-5" || got.Temperature != 1.0 {
		t.Errorf("banner model = %s@%v, want claude-sonnet-4-5@1", got.Model, got.Temperature)
	}

	if _, err := d.Generate(context.Background(), Request{
		ArtifactType: "email", Operation: "create", UserInstruction: "sale", WebsiteURL: "https://example.com",
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := c.lastRequest(t); got.Model != "claude-haiku-4-5" {
		t.Errorf("email model = %s, want stored override", got.Model)
	}
}

func TestGenerate_AutocompleteSplashStyle(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"", "professional style"},
		{"Casual", "casual style"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := &fakeCompleter{text: "Launch our new cafe"}
			d := newTestDispatcher(t, &fakeProvider{}, c, nil)
			if _, err := d.Generate(context.Background(), Request{
				ArtifactType: "autocomplete", Operation: "create", Variant: "splash_page",
				UserInstruction: "Launch our", Style: tt.style,
			}); err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got := c.lastRequest(t).Prompt; !strings.Contains(got, tt.want) {
				t.Errorf("prompt missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestGenerate_UnknownStyleIsInvalid(t *testing.T) {
	c := &fakeCompleter{}
	d := newTestDispatcher(t, &fakeProvider{}, c, nil)
	_, err := d.Generate(context.Background(), Request{
		ArtifactType: "autocomplete", Operation: "create", Variant: "splash_page",
		UserInstruction: "Launch our", Style: "grumpy",
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if c.calls != 0 {
		t.Errorf("completer calls = %d, want 0", c.calls)
	}
}
