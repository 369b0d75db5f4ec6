package ingest

import (
	"context"
	"io"
	"time"

	"github.com/calixflow/knowledge/internal/domain"
)

// DocumentRepository defines the storage contract for document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, tenantID, id string) (domain.Document, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Document, error)
	MarkProcessed(ctx context.Context, tenantID, id string, chunkCount int) error
	Delete(ctx context.Context, tenantID, id string) error
}

// ChunkRepository defines the storage contract for chunk records.
type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []domain.Chunk) error
	DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error)
}

// BlobStore is tenant-scoped object storage for the raw upload bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Extractor converts file bytes into plain text.
type Extractor func(filename, contentType string, data []byte) (string, error)
