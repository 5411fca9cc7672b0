// Package api is the HTTP surface: generation, artifact retrieval and the
// administrative model and template configuration endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/auth"
	"github.com/joestump/splashgen/internal/build"
	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/store"
)

// Generator produces artifact content. *generate.Dispatcher satisfies it.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Result, error)
}

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Logger           *zap.Logger
	SessionManager   *scs.SessionManager
	Generator        Generator
	ArtifactStore    *store.ArtifactStore
	ModelConfigStore *store.ModelConfigStore
	TemplateStore    *store.TemplateStore
	Templates        *prompt.Registry
	// DefaultModel replaces the built-in model id of every artifact type
	// in the reported defaults. It must match the dispatcher's option.
	DefaultModel     string
	AdminToken       string
	AllowedOrigins   []string
}

// NewRouter assembles the chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(deps.SessionManager.LoadAndSave)

	r.Get("/", index)
	r.Get("/health", health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		registerGenerateRoutes(r, deps.Generator, deps.ArtifactStore, deps.SessionManager, log)
		registerArtifactRoutes(r, deps.ArtifactStore, deps.SessionManager, log)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdminToken(deps.AdminToken))
			registerModelRoutes(r, deps.ModelConfigStore, deps.DefaultModel, log)
			registerTemplateRoutes(r, deps.Templates, deps.TemplateStore, log)
		})
	})

	return r
}

// requestLogger logs one line per request at a level chosen by status code.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.Int("status", status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr),
				zap.Duration("latency", time.Since(start)),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request handled", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request handled", fields...)
			default:
				log.Info("request handled", fields...)
			}
		})
	}
}

func index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServiceResponse{Service: "splashgen", Version: build.Version, Commit: build.Commit})
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
