// Package prompt assembles the flat instruction string sent to the
// chat model: assistant template, retrieved knowledge-base context,
// conversation history, then the current query. Sections are explicit
// so tests can assert on them independently of final formatting.
package prompt

import (
	"strings"

	"github.com/calixflow/knowledge/internal/domain"
)

const (
	contextHeader    = "Use the following knowledge base excerpts to answer:"
	contextSeparator = "\n---\n"
	historyHeader    = "Conversation so far:"
)

// Builder accumulates prompt sections in a fixed order.
type Builder struct {
	template string
	context  []string
	history  []domain.Message
	query    string
}

// NewBuilder creates an empty prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithTemplate sets the static assistant instruction template.
func (b *Builder) WithTemplate(template string) *Builder {
	b.template = strings.TrimSpace(template)
	return b
}

// WithContext sets the retrieved chunk texts, most relevant first.
func (b *Builder) WithContext(texts []string) *Builder {
	b.context = texts
	return b
}

// WithHistory sets prior conversation turns in order.
func (b *Builder) WithHistory(history []domain.Message) *Builder {
	b.history = history
	return b
}

// WithQuery sets the current user message.
func (b *Builder) WithQuery(query string) *Builder {
	b.query = strings.TrimSpace(query)
	return b
}

// ContextBlock renders the knowledge-base section alone. Empty when
// no chunks were retrieved, so a tenant with an empty knowledge base
// still produces a valid prompt.
func (b *Builder) ContextBlock() string {
	texts := make([]string, 0, len(b.context))
	for _, t := range b.context {
		if s := strings.TrimSpace(t); s != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) == 0 {
		return ""
	}
	return contextHeader + "\n" + strings.Join(texts, contextSeparator)
}

// HistoryBlock renders the conversation history section alone.
func (b *Builder) HistoryBlock() string {
	if len(b.history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	for _, m := range b.history {
		sb.WriteString("\n")
		switch m.Role {
		case domain.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}

// Build concatenates the non-empty sections into one instruction
// string. Never returns an empty string as long as a query is set.
func (b *Builder) Build() string {
	sections := make([]string, 0, 4)
	if b.template != "" {
		sections = append(sections, b.template)
	}
	if ctx := b.ContextBlock(); ctx != "" {
		sections = append(sections, ctx)
	}
	if hist := b.HistoryBlock(); hist != "" {
		sections = append(sections, hist)
	}
	if b.query != "" {
		sections = append(sections, "Current question: "+b.query)
	}
	return strings.Join(sections, "\n\n")
}
