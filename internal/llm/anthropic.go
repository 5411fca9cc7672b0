package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joestump/splashgen/internal/metrics"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 8192
)

type anthropicCompleter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newAnthropicCompleter(apiKey, baseURL string, timeout time.Duration) *anthropicCompleter {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &anthropicCompleter{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *anthropicCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	temp := req.Temperature
	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: &temp,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	metrics.LLMRequestDuration.WithLabelValues("anthropic", req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("anthropic", req.Model, "error").Inc()
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("anthropic", req.Model, "error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.LLMRequestsTotal.WithLabelValues("anthropic", req.Model, "error").Inc()
		return nil, fmt.Errorf("anthropic API returned %d: %s", resp.StatusCode, respBody)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("anthropic", req.Model, "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		metrics.LLMRequestsTotal.WithLabelValues("anthropic", req.Model, "empty").Inc()
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyCompletion)
	}
	metrics.LLMRequestsTotal.WithLabelValues("anthropic", req.Model, "success").Inc()
	metrics.LLMTokensTotal.WithLabelValues(req.Model, "prompt").Add(float64(apiResp.Usage.InputTokens))
	metrics.LLMTokensTotal.WithLabelValues(req.Model, "completion").Add(float64(apiResp.Usage.OutputTokens))

	model := apiResp.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Text:             text.String(),
		Model:            model,
		PromptTokens:     apiResp.Usage.InputTokens,
		CompletionTokens: apiResp.Usage.OutputTokens,
	}, nil
}
