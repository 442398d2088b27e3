package port

import "context"

// Generator turns an assembled prompt into an answer.
type Generator interface {
	// Generate returns the model's completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
