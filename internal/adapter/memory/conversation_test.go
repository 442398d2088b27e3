package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docchat/internal/domain"
)

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", New(0).Render())
}

func TestRender_Chronological(t *testing.T) {
	m := New(0)
	m.AppendExchange("What is a PDF?", "A document format.")
	m.Append(domain.ConversationTurn{Role: domain.RoleUser, Content: "Who made it?"})

	assert.Equal(t, "user: What is a PDF?\nassistant: A document format.\nuser: Who made it?", m.Render())
	assert.Equal(t, 3, m.Len())
}

func TestRender_Window(t *testing.T) {
	m := New(2)
	m.AppendExchange("q1", "a1")
	m.AppendExchange("q2", "a2")

	assert.Equal(t, "user: q2\nassistant: a2", m.Render())
	assert.Equal(t, 4, m.Len(), "window must not drop stored turns")
}

func TestTurns_Copy(t *testing.T) {
	m := New(0)
	m.AppendExchange("q", "a")

	turns := m.Turns()
	turns[0].Content = "changed"
	assert.Equal(t, "q", m.Turns()[0].Content)
}

func TestReset(t *testing.T) {
	m := New(0)
	m.AppendExchange("q", "a")
	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "", m.Render())
}
