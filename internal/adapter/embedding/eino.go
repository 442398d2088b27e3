package embedding

import (
	"context"
	"fmt"
	"os"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"

	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

// EinoEmbedder adapts an eino embedding component to the Embedder port.
type EinoEmbedder struct {
	embedder  einoEmbedding.Embedder
	model     string
	dimension int
	batchSize int
	policy    retry.Policy
	limiter   *retry.Limiter
}

// NewEinoEmbedder builds an OpenAI-compatible eino embedder.
func NewEinoEmbedder(ctx context.Context, apiKeyEnv, model, baseURL string, dimension int) (*EinoEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found in environment variable: %s", domain.ErrConfig, apiKeyEnv)
	}

	cfg := &openaiEmbed.EmbeddingConfig{
		APIKey: apiKey,
		Model:  model,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	emb, err := openaiEmbed.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create embedder: %v", domain.ErrConfig, err)
	}
	return WrapEino(emb, model, dimension), nil
}

// WrapEino wraps an existing eino embedder.
func WrapEino(emb einoEmbedding.Embedder, model string, dimension int) *EinoEmbedder {
	if dimension <= 0 {
		dimension = dimensionFor(model, 1536)
	}
	return &EinoEmbedder{
		embedder:  emb,
		model:     model,
		dimension: dimension,
		batchSize: 100,
		policy:    retry.DefaultPolicy(),
	}
}

func (e *EinoEmbedder) WithPolicy(p retry.Policy) *EinoEmbedder {
	e.policy = p
	return e
}

func (e *EinoEmbedder) WithLimiter(l *retry.Limiter) *EinoEmbedder {
	e.limiter = l
	return e
}

func (e *EinoEmbedder) WithBatchSize(n int) *EinoEmbedder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

func (e *EinoEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *EinoEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var vectors [][]float64
		err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
			var err error
			vectors, err = e.embedder.EmbedStrings(ctx, batch)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(batch))
		}

		for _, vec := range vectors {
			if len(vec) == 0 {
				return nil, fmt.Errorf("%w: empty embedding returned", domain.ErrEmbedding)
			}
			result = append(result, toFloat32(vec))
		}
	}
	return result, nil
}

func (e *EinoEmbedder) Dimension() int {
	return e.dimension
}

func (e *EinoEmbedder) ModelName() string {
	return e.model
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
