package chat

import (
	"context"

	"github.com/calixflow/knowledge/internal/domain"
)

// Retriever supplies the knowledge-base chunks most relevant to a
// query.
type Retriever interface {
	Search(ctx context.Context, tenantID, query string, topK int) ([]domain.ScoredChunk, error)
}
