package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	LLM struct {
		Provider string // "openai", "openai-compatible", "anthropic"
		APIKey   string
		BaseURL  string
		Model    string // replaces the per-type default model ids when set
		Timeout  time.Duration
	}
	Scrape struct {
		Timeout  time.Duration
		MaxChars int
	}
	Log struct {
		Level    string
		Encoding string
		Output   string
	}
	CORSAllowedOrigins []string
	AdminToken         string
	SessionLifetime    time.Duration
	InsecureCookies    bool
}

// Load reads config from environment (SPLASHGEN_ prefix) and optional splashgen.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPLASHGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("splashgen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "splashgen.db")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "180s")
	v.SetDefault("scrape.timeout", "30s")
	v.SetDefault("scrape.max_chars", 20000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("session.lifetime", "24h")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.LLM.Provider = v.GetString("llm.provider")
	cfg.LLM.APIKey = v.GetString("llm.api_key")
	cfg.LLM.BaseURL = v.GetString("llm.base_url")
	cfg.LLM.Model = v.GetString("llm.model")
	cfg.Scrape.MaxChars = v.GetInt("scrape.max_chars")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Encoding = v.GetString("log.encoding")
	cfg.Log.Output = v.GetString("log.output")
	cfg.CORSAllowedOrigins = splitList(v.GetString("cors.allowed_origins"))
	cfg.AdminToken = v.GetString("admin.token")
	cfg.InsecureCookies = v.GetBool("session.insecure_cookies")

	var err error
	if cfg.LLM.Timeout, err = time.ParseDuration(v.GetString("llm.timeout")); err != nil {
		return nil, fmt.Errorf("invalid SPLASHGEN_LLM_TIMEOUT: %w", err)
	}
	if cfg.Scrape.Timeout, err = time.ParseDuration(v.GetString("scrape.timeout")); err != nil {
		return nil, fmt.Errorf("invalid SPLASHGEN_SCRAPE_TIMEOUT: %w", err)
	}
	if cfg.SessionLifetime, err = time.ParseDuration(v.GetString("session.lifetime")); err != nil {
		return nil, fmt.Errorf("invalid SPLASHGEN_SESSION_LIFETIME: %w", err)
	}

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("SPLASHGEN_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("SPLASHGEN_DB_DSN is required")
	}
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("SPLASHGEN_LLM_API_KEY is required")
	}
	// The built-in per-type defaults are OpenAI model ids.
	if cfg.LLM.Provider == "anthropic" && cfg.LLM.Model == "" {
		return nil, fmt.Errorf("SPLASHGEN_LLM_MODEL is required for the anthropic provider")
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks. Viper hands env
// values over as a single string, so slices are kept in this form.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
