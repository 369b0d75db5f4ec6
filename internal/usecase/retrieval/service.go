package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/domain"
)

// DefaultTopK is the number of chunks returned when the caller does
// not override it.
const DefaultTopK = 5

// Service ranks a tenant's chunks against a query by cosine
// similarity. The scan is brute-force over every stored chunk; at
// knowledge-base sizes of a few thousand chunks this is faster than
// maintaining an index.
type Service struct {
	chunks   ChunkReader
	embedder Embedder
	topK     int
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(chunks ChunkReader, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		chunks:   chunks,
		embedder: embedder,
		topK:     DefaultTopK,
		logger:   logger,
	}
}

// WithTopK overrides the default result count.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// TopK returns the configured result count.
func (s *Service) TopK() int {
	return s.topK
}

// Search embeds the query and returns the tenant's topK most similar
// chunks, highest score first. An empty knowledge base yields an
// empty result, not an error.
func (s *Service) Search(ctx context.Context, tenantID, query string, topK int) ([]domain.ScoredChunk, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if topK <= 0 {
		topK = s.topK
	}

	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.chunks.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		score, err := domain.CosineSimilarity(result.Embedding, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("score chunk %s/%d: %w", c.DocumentID, c.Index, err)
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	s.logger.Debug("retrieval complete",
		zap.String("tenant_id", tenantID),
		zap.Int("candidates", len(chunks)),
		zap.Int("returned", len(scored)),
	)
	return scored, nil
}
