package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/entities"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultChatModel      = "gpt-4o"
	DefaultEmbeddingModel = openai.SmallEmbedding3
	DefaultTemperature    = 0.2
)

// OpenAIConfig holds what both OpenAI clients need to reach the API.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
	Timeout        time.Duration
}

func newOpenAIClient(cfg OpenAIConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", apperrors.ErrConfiguration)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientConfig), nil
}

// OpenAIEmbeddingClient implements Iservices.IEmbeddingClient.
type OpenAIEmbeddingClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbeddingClient(cfg OpenAIConfig) (*OpenAIEmbeddingClient, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	model := openai.EmbeddingModel(cfg.EmbeddingModel)
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbeddingClient{client: client, model: model}, nil
}

// Embed returns one vector per text, in input order. It never calls the
// provider for an empty batch. Any provider fault is an ErrEmbeddingProvider.
func (c *OpenAIEmbeddingClient) Embed(ctx context.Context, texts []string) ([]entities.Vector, error) {
	if len(texts) == 0 {
		return []entities.Vector{}, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEmbeddingProvider, err)
	}

	if len(resp.Data) == 0 {
		return []entities.Vector{}, nil
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", apperrors.ErrEmbeddingProvider, len(resp.Data), len(texts))
	}

	vectors := make([]entities.Vector, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) || vectors[item.Index] != nil {
			return nil, fmt.Errorf("%w: unexpected embedding index %d", apperrors.ErrEmbeddingProvider, item.Index)
		}
		vectors[item.Index] = entities.Vector(item.Embedding)
	}

	dimension := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dimension {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d", apperrors.ErrEmbeddingProvider, i, len(v), dimension)
		}
	}
	return vectors, nil
}

// OpenAIChatClient implements Iservices.IChatCompletionClient.
type OpenAIChatClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIChatClient(cfg OpenAIConfig) (*OpenAIChatClient, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIChatClient{client: client, model: model, temperature: cfg.Temperature}, nil
}

// Complete sends messages as-is and returns the first choice's content.
func (c *OpenAIChatClient) Complete(ctx context.Context, messages []entities.ChatTurn) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: c.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrLLMProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", apperrors.ErrLLMProvider)
	}
	return resp.Choices[0].Message.Content, nil
}
