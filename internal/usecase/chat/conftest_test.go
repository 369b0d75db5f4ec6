package chat

import (
	"context"

	"github.com/calixflow/knowledge/internal/domain"
)

type mockRetriever struct {
	searchFn func(ctx context.Context, tenantID, query string, topK int) ([]domain.ScoredChunk, error)
}

func (m *mockRetriever) Search(ctx context.Context, tenantID, query string, topK int) ([]domain.ScoredChunk, error) {
	return m.searchFn(ctx, tenantID, query, topK)
}

type mockChatModel struct {
	completeFn func(ctx context.Context, instruction, userMessage string) (domain.ChatResult, error)
	streamFn   func(ctx context.Context, instruction, userMessage string, onDelta domain.StreamHandler) (domain.ChatResult, error)
}

func (m *mockChatModel) Complete(ctx context.Context, instruction, userMessage string) (domain.ChatResult, error) {
	return m.completeFn(ctx, instruction, userMessage)
}

func (m *mockChatModel) Stream(
	ctx context.Context, instruction, userMessage string, onDelta domain.StreamHandler,
) (domain.ChatResult, error) {
	return m.streamFn(ctx, instruction, userMessage, onDelta)
}

func emptyRetriever() *mockRetriever {
	return &mockRetriever{
		searchFn: func(context.Context, string, string, int) ([]domain.ScoredChunk, error) {
			return []domain.ScoredChunk{}, nil
		},
	}
}
