package llm

import (
	"context"
	"strings"
)

// MockGenerator answers offline by echoing the start of the context section.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	const marker = "Retrieved Context:"
	i := strings.LastIndex(prompt, marker)
	if i < 0 {
		return "I don't know.", nil
	}
	excerpt := prompt[i+len(marker):]
	if j := strings.Index(excerpt, "\nQuestion:"); j >= 0 {
		excerpt = excerpt[:j]
	}
	excerpt = strings.TrimSpace(excerpt)
	if j := strings.Index(excerpt, "\n"); j >= 0 {
		excerpt = excerpt[:j]
	}
	if excerpt == "" {
		return "I don't know.", nil
	}
	if r := []rune(excerpt); len(r) > 200 {
		excerpt = string(r[:200])
	}
	return "Based on the documents: " + excerpt, nil
}

func (MockGenerator) ModelName() string {
	return "mock"
}
