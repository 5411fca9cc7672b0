package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/joestump/splashgen/internal/metrics"
)

type openaiCompleter struct {
	client *openai.Client
}

func newOpenAICompleter(apiKey, baseURL string, timeout time.Duration) *openaiCompleter {
	c := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		baseURL = strings.TrimRight(baseURL, "/")
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL += "/v1"
		}
		c.BaseURL = baseURL
	}
	c.HTTPClient = &http.Client{Timeout: timeout}
	return &openaiCompleter{client: openai.NewClientWithConfig(c)}
}

func (o *openaiCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: req.Prompt}},
	}
	if !IsReasoningModel(req.Model) {
		chatReq.Temperature = float32(req.Temperature)
		if chatReq.Temperature == 0 {
			// The client drops a zero temperature from the payload, which the
			// API reads as 1.
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	metrics.LLMRequestDuration.WithLabelValues("openai", req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("openai", req.Model, "error").Inc()
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.LLMRequestsTotal.WithLabelValues("openai", req.Model, "empty").Inc()
		return nil, fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	metrics.LLMRequestsTotal.WithLabelValues("openai", req.Model, "success").Inc()
	metrics.LLMTokensTotal.WithLabelValues(req.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(req.Model, "completion").Add(float64(resp.Usage.CompletionTokens))

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
