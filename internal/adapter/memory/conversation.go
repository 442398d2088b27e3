// Package memory keeps the transcript of a chat session.
package memory

import (
	"strings"

	"docchat/internal/domain"
)

// ConversationMemory is an append-only transcript. It is not safe for
// concurrent use; the pipeline serialises access.
type ConversationMemory struct {
	turns  []domain.ConversationTurn
	window int
}

// New returns an empty memory. A positive window limits Render to the most
// recent turns; stored turns are never dropped.
func New(window int) *ConversationMemory {
	if window < 0 {
		window = 0
	}
	return &ConversationMemory{window: window}
}

func (m *ConversationMemory) Append(turn domain.ConversationTurn) {
	m.turns = append(m.turns, turn)
}

// AppendExchange records a question and its answer as two turns.
func (m *ConversationMemory) AppendExchange(question, answer string) {
	m.turns = append(m.turns,
		domain.ConversationTurn{Role: domain.RoleUser, Content: question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer},
	)
}

// Render returns one "role: content" line per turn, oldest first.
func (m *ConversationMemory) Render() string {
	turns := m.turns
	if m.window > 0 && len(turns) > m.window {
		turns = turns[len(turns)-m.window:]
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// Turns returns a copy of every stored turn.
func (m *ConversationMemory) Turns() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *ConversationMemory) Len() int {
	return len(m.turns)
}

func (m *ConversationMemory) Reset() {
	m.turns = nil
}
