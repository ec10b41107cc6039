package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
	"github.com/bryanwahyu/pitchlens/internal/infra/ai/prompt"
)

const (
	maxTokens    = 2048
	providerName = "openai"

	defaultModel          = "gpt-4o-mini"
	defaultEmbeddingModel = openai.SmallEmbedding3
	defaultDimensions     = 1536
)

// Config of the OpenAI-compatible provider.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint (Azure/OpenAI-compatible gateways, tests).
	BaseURL             string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
	// HTTPTimeout bounds every HTTP exchange (audio uploads included); 0 keeps
	// go-openai's client without a timeout.
	HTTPTimeout time.Duration
}

// Client implements ai.ContentAnalyzer and ai.Embedder.
type Client struct {
	*openai.Client
	Model          string
	EmbeddingModel openai.EmbeddingModel
	Dimensions     int
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPTimeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	c := &Client{
		Client:         openai.NewClientWithConfig(oc),
		Model:          cfg.Model,
		EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		Dimensions:     cfg.EmbeddingDimensions,
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaultEmbeddingModel
	}
	if c.Dimensions <= 0 {
		c.Dimensions = defaultDimensions
	}
	return c
}

// AnalyzeContent asks the chat model for keywords, quality, sentiment and summary.
func (c *Client) AnalyzeContent(ctx context.Context, transcript string) (ai.ContentAnalysis, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(transcript)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if reasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.ContentAnalysis{}, classify(ctx, "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return ai.ContentAnalysis{}, ai.NewProviderError(providerName, ai.KindMalformed, "no choices returned", nil)
	}
	return prompt.ParseContentAnalysis(providerName, resp.Choices[0].Message.Content)
}

// Embed returns a vector of exactly Dimension() components.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      c.EmbeddingModel,
		Dimensions: c.Dimensions,
	})
	if err != nil {
		return nil, classify(ctx, "embeddings", err)
	}
	if len(resp.Data) == 0 {
		return nil, ai.NewProviderError(providerName, ai.KindMalformed, "no embedding returned", nil)
	}
	vec := resp.Data[0].Embedding
	if len(vec) != c.Dimensions {
		return nil, ai.NewProviderError(providerName, ai.KindMalformed,
			fmt.Sprintf("embedding has %d dimensions, want %d", len(vec), c.Dimensions), nil)
	}
	return vec, nil
}

// Dimension of the vectors returned by Embed.
func (c *Client) Dimension() int { return c.Dimensions }

func reasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// classify maps go-openai errors onto provider error kinds.
func classify(ctx context.Context, op string, err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return ai.NewProviderError(providerName, ai.KindQuota, op, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ai.NewProviderError(providerName, ai.KindTimeout, op, err)
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return ai.NewProviderError(providerName, ai.KindTimeout, op, err)
	}
	return ai.NewProviderError(providerName, ai.KindError, op, err)
}
