package retrieval

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/domain"
)

func TestSearch_RanksByScore(t *testing.T) {
	// Query aligns with the x axis; chunk vectors at decreasing angles.
	chunks := &mockChunkReader{
		listFn: func(context.Context, string) ([]domain.Chunk, error) {
			return []domain.Chunk{
				{DocumentID: "d1", Index: 0, Text: "off-axis", Vector: []float32{0.2, 0.98}},
				{DocumentID: "d1", Index: 1, Text: "aligned", Vector: []float32{1, 0}},
				{DocumentID: "d2", Index: 0, Text: "diagonal", Vector: []float32{0.7, 0.7}},
			}, nil
		},
	}

	svc := New(chunks, fixedEmbedder([]float32{1, 0}), zap.NewNop())

	got, err := svc.Search(context.Background(), "agency-1", "question", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Text != "aligned" {
		t.Errorf("expected best match first, got %q", got[0].Text)
	}
	if got[1].Text != "diagonal" {
		t.Errorf("expected second match, got %q", got[1].Text)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("scores not descending: %f < %f", got[0].Score, got[1].Score)
	}
}

func TestSearch_EmptyKnowledgeBase(t *testing.T) {
	chunks := &mockChunkReader{
		listFn: func(context.Context, string) ([]domain.Chunk, error) {
			return nil, nil
		},
	}

	svc := New(chunks, fixedEmbedder([]float32{1, 0}), zap.NewNop())

	got, err := svc.Search(context.Background(), "agency-1", "question", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestSearch_TopKLargerThanCorpus(t *testing.T) {
	chunks := &mockChunkReader{
		listFn: func(context.Context, string) ([]domain.Chunk, error) {
			return []domain.Chunk{
				{DocumentID: "d1", Index: 0, Vector: []float32{1, 0}},
			}, nil
		},
	}

	svc := New(chunks, fixedEmbedder([]float32{1, 0}), zap.NewNop())

	got, err := svc.Search(context.Background(), "agency-1", "question", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	chunks := &mockChunkReader{
		listFn: func(context.Context, string) ([]domain.Chunk, error) {
			return []domain.Chunk{
				{DocumentID: "d1", Index: 0, Vector: []float32{1, 0, 0}},
			}, nil
		},
	}

	svc := New(chunks, fixedEmbedder([]float32{1, 0}), zap.NewNop())

	_, err := svc.Search(context.Background(), "agency-1", "question", 0)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_EmbedErrorPropagates(t *testing.T) {
	emb := &mockEmbedder{
		embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
		},
	}

	svc := New(&mockChunkReader{}, emb, zap.NewNop())

	_, err := svc.Search(context.Background(), "agency-1", "question", 0)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSearch_MissingTenant(t *testing.T) {
	svc := New(&mockChunkReader{}, fixedEmbedder([]float32{1}), zap.NewNop())

	_, err := svc.Search(context.Background(), "", "question", 0)
	if !errors.Is(err, domain.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestSearch_DefaultTopK(t *testing.T) {
	many := make([]domain.Chunk, 8)
	for i := range many {
		many[i] = domain.Chunk{DocumentID: "d1", Index: i, Vector: []float32{1, 0}}
	}
	chunks := &mockChunkReader{
		listFn: func(context.Context, string) ([]domain.Chunk, error) {
			return many, nil
		},
	}

	svc := New(chunks, fixedEmbedder([]float32{1, 0}), zap.NewNop())

	got, err := svc.Search(context.Background(), "agency-1", "question", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != DefaultTopK {
		t.Fatalf("expected %d results, got %d", DefaultTopK, len(got))
	}
}
