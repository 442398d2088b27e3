package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"docchat/internal/domain"
)

// ContextDelimiter separates retrieved chunks inside the context block.
const ContextDelimiter = "\n\n"

const layout = `{{.Role}}

Conversation History to refer to before answering the question:
{{.History}}

Retrieved Context:
{{.Context}}

Question:
{{.Question}}

Provide an accurate and relevant answer based on the context, ensuring clarity and professionalism. Never preface your response with phrases like "According to the retrieved context."
Answer:
`

var tmpl = template.Must(template.New("prompt").Parse(layout))

// PromptData is the set of named slots a persona template is rendered with.
type PromptData struct {
	Role     string
	History  string
	Context  string
	Question string
}

// Assemble renders the persona's template. Inputs are read only.
func Assemble(p Persona, history string, chunks []domain.Chunk, question string) (string, error) {
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown persona %s", domain.ErrConfig, p)
	}

	data := PromptData{
		Role:     personas[p].role,
		History:  history,
		Context:  JoinContext(chunks),
		Question: question,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// JoinContext concatenates chunk texts in rank order.
func JoinContext(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, ContextDelimiter)
}
