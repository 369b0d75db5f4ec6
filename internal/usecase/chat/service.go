package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/domain"
	"github.com/calixflow/knowledge/internal/domain/prompt"
)

// DefaultTemplate is the assistant instruction used when a tenant has
// no custom template configured.
const DefaultTemplate = "You are a knowledgeable assistant. Answer using the provided " +
	"knowledge base excerpts when they are relevant; say so when they are not."

// Answer is a completed chat turn, with the chunks that grounded it.
type Answer struct {
	Text    string
	Sources []domain.ScoredChunk
	Usage   domain.ChatResult
}

// Service answers tenant questions grounded in retrieved chunks.
type Service struct {
	retriever Retriever
	model     domain.ChatModel
	template  string
	topK      int
	logger    *zap.Logger
}

// New creates a chat service.
func New(retriever Retriever, model domain.ChatModel, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		model:     model,
		template:  DefaultTemplate,
		logger:    logger,
	}
}

// WithTemplate overrides the assistant instruction template.
func (s *Service) WithTemplate(template string) *Service {
	if template != "" {
		s.template = template
	}
	return s
}

// WithTopK overrides how many chunks ground each answer. Zero keeps
// the retriever's default.
func (s *Service) WithTopK(k int) *Service {
	s.topK = k
	return s
}

// Ask retrieves context for the query, assembles the instruction, and
// blocks until the model's full answer arrives.
func (s *Service) Ask(
	ctx context.Context, tenantID, query string, history []domain.Message,
) (Answer, error) {
	sources, instruction, err := s.prepare(ctx, tenantID, query, history)
	if err != nil {
		return Answer{}, err
	}

	result, err := s.model.Complete(ctx, instruction, query)
	if err != nil {
		return Answer{}, fmt.Errorf("chat completion: %w", err)
	}

	s.logger.Info("chat turn complete",
		zap.String("tenant_id", tenantID),
		zap.Int("sources", len(sources)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return Answer{Text: result.Text, Sources: sources, Usage: result}, nil
}

// AskStream is Ask with the answer delivered incrementally through
// onDelta. The accumulated answer is returned once the stream ends.
func (s *Service) AskStream(
	ctx context.Context, tenantID, query string, history []domain.Message, onDelta domain.StreamHandler,
) (Answer, error) {
	sources, instruction, err := s.prepare(ctx, tenantID, query, history)
	if err != nil {
		return Answer{}, err
	}

	result, err := s.model.Stream(ctx, instruction, query, onDelta)
	if err != nil {
		return Answer{}, fmt.Errorf("chat stream: %w", err)
	}
	return Answer{Text: result.Text, Sources: sources, Usage: result}, nil
}

// prepare runs retrieval and renders the instruction string. A tenant
// with an empty knowledge base still gets an answer; the context
// section is simply absent.
func (s *Service) prepare(
	ctx context.Context, tenantID, query string, history []domain.Message,
) ([]domain.ScoredChunk, string, error) {
	if tenantID == "" {
		return nil, "", domain.ErrTenantRequired
	}
	if query == "" {
		return nil, "", fmt.Errorf("%w: empty query", domain.ErrInvalidRequest)
	}

	sources, err := s.retriever.Search(ctx, tenantID, query, s.topK)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve context: %w", err)
	}

	texts := make([]string, 0, len(sources))
	for _, sc := range sources {
		texts = append(texts, sc.Text)
	}

	instruction := prompt.NewBuilder().
		WithTemplate(s.template).
		WithContext(texts).
		WithHistory(history).
		Build()
	return sources, instruction, nil
}
