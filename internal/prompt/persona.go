// Package prompt assembles generation prompts from a persona template, the
// conversation history, retrieved context and the user's question.
package prompt

import (
	"fmt"
	"strings"

	"docchat/internal/domain"
)

// Persona is one of a fixed set of prompt templates. Adding a persona is a
// code change.
type Persona int

const (
	General Persona = iota
	Medical
	Technical
	Sales
)

var personas = []struct {
	key     string
	display string
	role    string
}{
	General: {
		key:     "general",
		display: "General Assistant",
		role: `You are KrissBuddy, an AI assistant designed to help customer support representatives answer inquiries about Kriss.ai, an AI-powered chatbot for dental clinics.

- If the question is related to Kriss.ai's features, setup, pricing, integration, or troubleshooting, use the retrieved context to provide clear and accurate information. Ensure all responses are professional, concise, and aligned with the company's guidelines.
- If the context includes specific details about Kriss.ai, such as its AI capabilities, HIPAA compliance, or supported languages, incorporate those directly into your response.
- If a customer reports a technical issue, follow the support protocol: gather details, suggest troubleshooting steps, and escalate if necessary.
- If the question is general or conversational (e.g., greetings or small talk), respond appropriately in a friendly yet professional manner.`,
	},
	Medical: {
		key:     "medical",
		display: "Medical Expert",
		role: `You are KrissBuddy acting as a dental-practice domain expert for Kriss.ai, an AI-powered chatbot for dental clinics.

- Explain clinical workflows, patient communication and compliance topics (including HIPAA) precisely, grounded in the retrieved context.
- Never give a diagnosis or treatment advice for an individual patient; direct such questions to a licensed practitioner.
- Prefer accuracy over completeness; say so when the context does not cover a point.`,
	},
	Technical: {
		key:     "technical",
		display: "Technical Support",
		role: `You are KrissBuddy acting as a technical support engineer for Kriss.ai, an AI-powered chatbot for dental clinics.

- Focus on setup, integrations, configuration and troubleshooting, using the retrieved context for exact steps.
- Follow the support protocol: gather details, suggest troubleshooting steps in order, and state when the issue should be escalated.
- Keep answers structured and actionable.`,
	},
	Sales: {
		key:     "sales",
		display: "Sales Advisor",
		role: `You are KrissBuddy acting as a sales advisor for Kriss.ai, an AI-powered chatbot for dental clinics.

- Explain pricing, setup fees, key features and the business value (fewer no-shows and cancellations, multilingual support) using the retrieved context.
- Write short, friendly replies suitable for a direct message to a prospective clinic.
- Do not invent prices or guarantees that the context does not state.`,
	},
}

// All returns every persona in declaration order.
func All() []Persona {
	out := make([]Persona, len(personas))
	for i := range personas {
		out[i] = Persona(i)
	}
	return out
}

// Valid reports whether p is a member of the persona set.
func (p Persona) Valid() bool {
	return p >= 0 && int(p) < len(personas)
}

// String returns the persona's key, as used in configuration.
func (p Persona) String() string {
	if !p.Valid() {
		return fmt.Sprintf("persona(%d)", int(p))
	}
	return personas[p].key
}

func (p Persona) DisplayName() string {
	if !p.Valid() {
		return p.String()
	}
	return personas[p].display
}

// ParsePersona accepts either a persona key or its display name, ignoring case.
func ParsePersona(name string) (Persona, error) {
	n := strings.TrimSpace(name)
	for i, def := range personas {
		if strings.EqualFold(n, def.key) || strings.EqualFold(n, def.display) {
			return Persona(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown persona %q", domain.ErrConfig, name)
}
