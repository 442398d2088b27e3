package llm

import (
	"context"
	"fmt"
	"os"

	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

// EinoGenerator answers through an eino chat model.
type EinoGenerator struct {
	model   model.BaseChatModel
	name    string
	policy  retry.Policy
	limiter *retry.Limiter
}

// NewEinoGenerator builds an OpenAI-compatible eino chat model.
func NewEinoGenerator(ctx context.Context, cfg ClientConfig) (*EinoGenerator, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found. Set %s environment variable", domain.ErrConfig, keyEnv)
	}

	mc := &openaiModel.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}
	if cfg.Temperature > 0 {
		t := float32(cfg.Temperature)
		mc.Temperature = &t
	}
	if cfg.MaxTokens > 0 {
		n := cfg.MaxTokens
		mc.MaxTokens = &n
	}

	cm, err := openaiModel.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("%w: create chat model: %v", domain.ErrConfig, err)
	}

	g := WrapEino(cm, cfg.Model)
	if cfg.Policy.Attempts > 0 {
		g.policy = cfg.Policy
	}
	g.limiter = cfg.Limiter
	return g, nil
}

// WrapEino wraps an existing chat model.
func WrapEino(cm model.BaseChatModel, name string) *EinoGenerator {
	return &EinoGenerator{model: cm, name: name, policy: retry.DefaultPolicy()}
}

func (g *EinoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var msg *schema.Message
	err := retry.Do(ctx, g.policy, func(ctx context.Context) error {
		var err error
		msg, err = g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: no response from model", domain.ErrGeneration)
	}
	return msg.Content, nil
}

func (g *EinoGenerator) ModelName() string {
	return g.name
}
