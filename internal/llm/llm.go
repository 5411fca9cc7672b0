// Package llm sends filled prompts to a chat-completion provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joestump/splashgen/internal/config"
)

// ErrEmptyCompletion is returned when the provider answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// Request is a single-turn completion request.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Completion is the provider's answer.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// New creates a Completer for the configured provider.
func New(cfg *config.Config) (Completer, error) {
	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	switch cfg.LLM.Provider {
	case "anthropic":
		return newAnthropicCompleter(cfg.LLM.APIKey, cfg.LLM.BaseURL, timeout), nil
	case "openai", "openai-compatible":
		return newOpenAICompleter(cfg.LLM.APIKey, cfg.LLM.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.LLM.Provider)
	}
}

// IsReasoningModel reports whether model belongs to the o-series, whose
// endpoints reject any temperature other than the default.
func IsReasoningModel(model string) bool {
	m := strings.ToLower(model)
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if m == prefix || strings.HasPrefix(m, prefix+"-") {
			return true
		}
	}
	return false
}
