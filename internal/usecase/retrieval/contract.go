package retrieval

import (
	"context"

	"github.com/calixflow/knowledge/internal/domain"
)

// ChunkReader lists a tenant's chunk records.
type ChunkReader interface {
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Chunk, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
