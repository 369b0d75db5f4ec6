package ingest

import (
	"context"
	"io"
	"time"

	"github.com/calixflow/knowledge/internal/domain"
)

type mockDocumentRepo struct {
	createFn        func(ctx context.Context, doc *domain.Document) error
	getFn           func(ctx context.Context, tenantID, id string) (domain.Document, error)
	listFn          func(ctx context.Context, tenantID string) ([]domain.Document, error)
	markProcessedFn func(ctx context.Context, tenantID, id string, chunkCount int) error
	deleteFn        func(ctx context.Context, tenantID, id string) error
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *domain.Document) error {
	return m.createFn(ctx, doc)
}

func (m *mockDocumentRepo) Get(ctx context.Context, tenantID, id string) (domain.Document, error) {
	return m.getFn(ctx, tenantID, id)
}

func (m *mockDocumentRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Document, error) {
	return m.listFn(ctx, tenantID)
}

func (m *mockDocumentRepo) MarkProcessed(ctx context.Context, tenantID, id string, chunkCount int) error {
	return m.markProcessedFn(ctx, tenantID, id, chunkCount)
}

func (m *mockDocumentRepo) Delete(ctx context.Context, tenantID, id string) error {
	return m.deleteFn(ctx, tenantID, id)
}

type mockChunkRepo struct {
	createBatchFn func(ctx context.Context, chunks []domain.Chunk) error
	deleteByDocFn func(ctx context.Context, tenantID, documentID string) (int, error)
}

func (m *mockChunkRepo) CreateBatch(ctx context.Context, chunks []domain.Chunk) error {
	return m.createBatchFn(ctx, chunks)
}

func (m *mockChunkRepo) DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	return m.deleteByDocFn(ctx, tenantID, documentID)
}

type mockBlobStore struct {
	putFn       func(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	removeFn    func(ctx context.Context, key string) error
	presignedFn func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func (m *mockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.putFn(ctx, key, r, size, contentType)
}

func (m *mockBlobStore) Remove(ctx context.Context, key string) error {
	return m.removeFn(ctx, key)
}

func (m *mockBlobStore) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return m.presignedFn(ctx, key, ttl)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

// passthroughBlob is a blob store where every call succeeds.
func passthroughBlob() *mockBlobStore {
	return &mockBlobStore{
		putFn:    func(context.Context, string, io.Reader, int64, string) error { return nil },
		removeFn: func(context.Context, string) error { return nil },
		presignedFn: func(_ context.Context, key string, _ time.Duration) (string, error) {
			return "https://blobs.local/" + key, nil
		},
	}
}
