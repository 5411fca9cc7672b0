package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/api"
	"github.com/joestump/splashgen/internal/auth"
	"github.com/joestump/splashgen/internal/build"
	"github.com/joestump/splashgen/internal/config"
	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/llm"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/scrape"
	"github.com/joestump/splashgen/internal/store"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			sessionManager := auth.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)

			artifactStore := store.NewArtifactStore(database)
			modelStore := store.NewModelConfigStore(database)
			templateStore := store.NewTemplateStore(database)

			registry, err := prompt.NewRegistry(templateStore, log)
			if err != nil {
				return err
			}
			completer, err := llm.New(cfg)
			if err != nil {
				return err
			}
			dispatcher := generate.NewDispatcher(
				scrape.NewHTTPProvider(cfg.Scrape.Timeout, cfg.Scrape.MaxChars),
				registry,
				modelStore,
				completer,
				generate.Options{ScrapeTimeout: cfg.Scrape.Timeout, CompletionTimeout: cfg.LLM.Timeout, Model: cfg.LLM.Model},
				log,
			)

			if cfg.AdminToken == "" {
				log.Warn("admin token not set; model and template endpoints are unauthenticated")
			}

			router := api.NewRouter(api.Deps{
				Logger:           log,
				SessionManager:   sessionManager,
				Generator:        dispatcher,
				ArtifactStore:    artifactStore,
				ModelConfigStore: modelStore,
				TemplateStore:    templateStore,
				Templates:        registry,
				DefaultModel:     cfg.LLM.Model,
				AdminToken:       cfg.AdminToken,
				AllowedOrigins:   cfg.CORSAllowedOrigins,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening",
					zap.String("addr", cfg.HTTP.Addr),
					zap.String("build", build.String()),
					zap.String("llm_provider", cfg.LLM.Provider))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
