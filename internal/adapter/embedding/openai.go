package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	batchSize int
	client    *http.Client
	policy    retry.Policy
	limiter   *retry.Limiter
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Option tunes an OpenAIEmbedder.
type Option func(*OpenAIEmbedder)

func WithPolicy(p retry.Policy) Option {
	return func(e *OpenAIEmbedder) { e.policy = p }
}

func WithLimiter(l *retry.Limiter) Option {
	return func(e *OpenAIEmbedder) { e.limiter = l }
}

func WithBatchSize(n int) Option {
	return func(e *OpenAIEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithDimension(n int) Option {
	return func(e *OpenAIEmbedder) {
		if n > 0 {
			e.dimension = n
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(e *OpenAIEmbedder) { e.client = c }
}

func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, opts ...Option) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found in environment variable: %s", domain.ErrConfig, apiKeyEnv)
	}
	return newEmbedder(apiKey, model, baseURL, dimensionFor(model, 1536), opts...), nil
}

func NewOllamaEmbedder(model, baseURL string, opts ...Option) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return newEmbedder("ollama", model, baseURL, dimensionFor(model, 768), opts...)
}

func newEmbedder(apiKey, model, baseURL string, dimension int, opts ...Option) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		batchSize: 100,
		client:    &http.Client{},
		policy:    retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func dimensionFor(model string, fallback int) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	}
	return fallback
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var embeddings [][]float32
		err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
			var err error
			embeddings, err = e.embedBatch(ctx, batch)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input: texts,
		Model: e.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
		if isPermanentStatus(resp.StatusCode) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err))
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, v := range embeddings {
		if len(v) == 0 {
			return nil, retry.Permanent(fmt.Errorf("no embedding returned for input %d", i))
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// isPermanentStatus reports client errors that a retry cannot fix.
func isPermanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout
}

func preview(body []byte) string {
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
