package retrieval

import (
	"context"

	"github.com/calixflow/knowledge/internal/domain"
)

type mockChunkReader struct {
	listFn func(ctx context.Context, tenantID string) ([]domain.Chunk, error)
}

func (m *mockChunkReader) ListByTenant(ctx context.Context, tenantID string) ([]domain.Chunk, error) {
	return m.listFn(ctx, tenantID)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

func fixedEmbedder(vec []float32) *mockEmbedder {
	return &mockEmbedder{
		embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: vec}, nil
		},
	}
}
