package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/config"
	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/llm"
	"github.com/joestump/splashgen/internal/prompt"
	"github.com/joestump/splashgen/internal/scrape"
	"github.com/joestump/splashgen/internal/store"
)

// newGenerateCmd runs a single generation and prints the result to stdout.
// Stored template and model overrides apply. With --save the result is written
// to the artifact store like an API generation.
func newGenerateCmd() *cobra.Command {
	var (
		req       generate.Request
		priorFile string
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one artifact and print it",
		Example: `  splashgen generate --type splash_page --variant casual \
    --url https://example.com --instruction "spring sale landing page"
  splashgen generate --type banner --operation refine \
    --prior-id 3f0c... --instruction "larger headline" --save`,
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

			if priorFile != "" {
				b, err := os.ReadFile(priorFile)
				if err != nil {
					return fmt.Errorf("read prior artifact: %w", err)
				}
				req.PriorArtifact = string(b)
			}

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			artifacts := store.NewArtifactStore(database)
			if req.PriorArtifactID != "" {
				a, err := artifacts.GetByID(cmd.Context(), req.PriorArtifactID)
				if err != nil {
					return fmt.Errorf("load prior artifact: %w", err)
				}
				if a.ArtifactType != req.ArtifactType {
					return fmt.Errorf("artifact %s is a %s, not a %s", a.ID, a.ArtifactType, req.ArtifactType)
				}
				if req.PriorArtifact == "" {
					req.PriorArtifact = a.Content
				}
				if req.Variant == "" {
					req.Variant = a.Variant
				}
			}

			registry, err := prompt.NewRegistry(store.NewTemplateStore(database), log)
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
				store.NewModelConfigStore(database),
				completer,
				generate.Options{ScrapeTimeout: cfg.Scrape.Timeout, CompletionTimeout: cfg.LLM.Timeout, Model: cfg.LLM.Model},
				log,
			)

			res, err := dispatcher.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Debug("generated",
				zap.String("artifact_type", string(res.ArtifactType)),
				zap.String("model", res.Model),
				zap.Bool("extracted", res.Extracted))

			if save {
				spec, _ := generate.LookupType(string(res.ArtifactType))
				if !spec.Persisted {
					return fmt.Errorf("%s artifacts are not stored", res.ArtifactType)
				}
				var a *store.Artifact
				if res.Operation == generate.Create {
					a, err = artifacts.Create(cmd.Context(), string(res.ArtifactType), res.Variant, res.Content, req.ButtonURL)
				} else {
					a, err = artifacts.Update(cmd.Context(), req.PriorArtifactID, string(res.ArtifactType), res.Variant, res.Content, req.ButtonURL)
				}
				if err != nil {
					return fmt.Errorf("save artifact: %w", err)
				}
				log.Info("artifact saved", zap.String("id", a.ID))
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Content)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ArtifactType, "type", "", "artifact type (splash_page, email, banner, blurb, autocomplete)")
	f.StringVar(&req.Operation, "operation", "create", "create or refine")
	f.StringVar(&req.Variant, "variant", "", "style variant; defaults per artifact type")
	f.StringVarP(&req.UserInstruction, "instruction", "i", "", "what to generate or change")
	f.StringVarP(&req.WebsiteURL, "url", "u", "", "company website to draw content from")
	f.StringVar(&priorFile, "prior-file", "", "file holding the artifact to refine")
	f.StringVar(&req.PriorArtifactID, "prior-id", "", "stored artifact to refine; its content is used when --prior-file is not given")
	f.BoolVar(&save, "save", false, "store the result in the artifact store")
	f.StringVar(&req.ButtonURL, "button-url", "", "call-to-action link for splash pages")
	f.Float64Var(&req.Width, "width", 0, "banner or blurb width in pixels")
	f.Float64Var(&req.Height, "height", 0, "banner or blurb height in pixels")
	f.StringVar(&req.Style, "style", "", "splash page tone for a splash_page autocomplete (professional, casual)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}
