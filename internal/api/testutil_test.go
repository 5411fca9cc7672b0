package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/joestump/splashgen/internal/api"
	"github.com/joestump/splashgen/internal/auth"
	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/llm"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/scrape"
	"github.com/joestump/splashgen/internal/store"
	"github.com/joestump/splashgen/internal/testutil"
)

const testAdminToken = "admin-secret"

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeProvider) Fetch(_ context.Context, url string) (*scrape.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &scrape.Page{Domain: "example.com", SourceURL: url, Body: "Example Co makes widgets."}, nil
}

type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
	last  llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text, Model: req.Model}, nil
}

// testEnv holds the router plus the stores and fakes behind it.
type testEnv struct {
	DB            *sqlx.DB
	Router        http.Handler
	Artifacts     *store.ArtifactStore
	ModelConfigs  *store.ModelConfigStore
	TemplateStore *store.TemplateStore
	Provider      *fakeProvider
	Completer     *fakeCompleter
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full router with real stores and a real dispatcher.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithModel(t, "")
}

// newTestEnvWithModel is newTestEnv with a configured default model id.
func newTestEnvWithModel(t *testing.T, model string) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	artifacts := store.NewArtifactStore(db)
	models := store.NewModelConfigStore(db)
	templates := store.NewTemplateStore(db)

	registry, err := prompt.NewRegistry(templates, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	provider := &fakeProvider{}
	completer := &fakeCompleter{text: "Here it is: <!DOCTYPE html><html><body>v1</body></html> enjoy"}
	dispatcher := generate.NewDispatcher(provider, registry, models, completer,
		generate.Options{ScrapeTimeout: time.Second, CompletionTimeout: time.Second, Model: model}, nil)

	router := api.NewRouter(api.Deps{
		SessionManager:   auth.NewSessionManager(db, "sqlite3", time.Hour, false),
		Generator:        dispatcher,
		ArtifactStore:    artifacts,
		ModelConfigStore: models,
		TemplateStore:    templates,
		Templates:        registry,
		DefaultModel:     model,
		AdminToken:       testAdminToken,
		AllowedOrigins:   []string{"http://localhost:3000"},
	})

	return &testEnv{
		DB:            db,
		Router:        router,
		Artifacts:     artifacts,
		ModelConfigs:  models,
		TemplateStore: templates,
		Provider:      provider,
		Completer:     completer,
	}
}

// do sends a request with an optional JSON body and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

func adminAuth() []string {
	return []string{"Authorization", "Bearer " + testAdminToken}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v; body: %s", err, rec.Body.String())
	}
	return v
}

var errBoom = errors.New("boom")

// sessionCookie returns the session cookie set on rec as a Cookie header
// value, or "" when none was set.
func sessionCookie(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "splashgen_session" {
			return c.Name + "=" + c.Value
		}
	}
	return ""
}
