// Package llm holds the answer generators.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

// OpenAIGenerator is a generic OpenAI-compatible chat completions client.
type OpenAIGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	policy      retry.Policy
	limiter     *retry.Limiter

	mu    sync.Mutex
	stats Stats
}

// Stats tracks usage.
type Stats struct {
	TotalCalls        int
	TotalInputChars   int
	TotalOutputChars  int
	TotalInputTokens  int // estimated
	TotalOutputTokens int // estimated
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"groq":   {"https://api.groq.com/openai/v1", "GROQ_API_KEY"},
	"openai": {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"ollama": {"http://localhost:11434/v1", ""},
}

// ClientConfig configures a generator.
type ClientConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Temperature float64
	MaxTokens   int
	Policy      retry.Policy
	Limiter     *retry.Limiter
	HTTPClient  *http.Client
}

func NewOpenAIGenerator(cfg ClientConfig) (*OpenAIGenerator, error) {
	p, ok := providers[cfg.Provider]
	if !ok && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: unknown provider: %s (set base_url for custom endpoints)", domain.ErrConfig, cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = p.baseURL
	}

	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = p.keyEnvVar
	}
	var apiKey string
	if keyEnv != "" && cfg.Provider != "ollama" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: API key not found. Set %s environment variable", domain.ErrConfig, keyEnv)
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	policy := cfg.Policy
	if policy.Attempts == 0 {
		policy = retry.DefaultPolicy()
	}

	return &OpenAIGenerator{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      client,
		policy:      policy,
		limiter:     cfg.Limiter,
	}, nil
}

// Generate sends the prompt as a single user message.
func (c *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var output string
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var err error
		output, err = c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}})
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	c.mu.Lock()
	c.stats.TotalCalls++
	c.stats.TotalInputChars += len(prompt)
	c.stats.TotalOutputChars += len(output)
	// ~4 chars per token for English
	c.stats.TotalInputTokens += len(prompt) / 4
	c.stats.TotalOutputTokens += len(output) / 4
	c.mu.Unlock()

	return output, nil
}

func (c *OpenAIGenerator) chat(ctx context.Context, messages []chatMessage) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusRequestTimeout {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (c *OpenAIGenerator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *OpenAIGenerator) ModelName() string {
	return c.model
}

func preview(body []byte) string {
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
