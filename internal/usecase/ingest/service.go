package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/blob"
	"github.com/calixflow/knowledge/internal/chunker"
	"github.com/calixflow/knowledge/internal/domain"
	"github.com/calixflow/knowledge/internal/extract"
)

// MaxFileBytes is the default upload size ceiling (10 MiB).
const MaxFileBytes = 10 << 20

// Service handles document upload, processing, and deletion.
type Service struct {
	docs         DocumentRepository
	chunks       ChunkRepository
	blobs        BlobStore
	embedder     Embedder
	extractor    Extractor
	maxFileBytes int64
	chunkMax     int
	urlTTL       time.Duration
	logger       *zap.Logger
}

// New creates an ingestion service.
func New(
	docs DocumentRepository,
	chunks ChunkRepository,
	blobs BlobStore,
	embedder Embedder,
	logger *zap.Logger,
) *Service {
	return &Service{
		docs:         docs,
		chunks:       chunks,
		blobs:        blobs,
		embedder:     embedder,
		extractor:    extract.Text,
		maxFileBytes: MaxFileBytes,
		chunkMax:     chunker.DefaultMaxChars,
		urlTTL:       24 * time.Hour,
		logger:       logger,
	}
}

// WithLimits overrides the upload size ceiling and chunk length.
func (s *Service) WithLimits(maxFileBytes int64, chunkMaxChars int) *Service {
	if maxFileBytes > 0 {
		s.maxFileBytes = maxFileBytes
	}
	if chunkMaxChars > 0 {
		s.chunkMax = chunkMaxChars
	}
	return s
}

// WithExtractor overrides text extraction (tests).
func (s *Service) WithExtractor(fn Extractor) *Service {
	s.extractor = fn
	return s
}

// Upload validates the file, writes the blob, and records metadata
// with Processed=false. Validation happens before any write. No blob
// rollback is attempted if the metadata write fails; the orphan is
// logged instead.
func (s *Service) Upload(
	ctx context.Context, tenantID, userID, filename, contentType string, data []byte,
) (domain.Document, error) {
	if tenantID == "" {
		return domain.Document{}, domain.ErrTenantRequired
	}
	if !extract.Allowed(contentType) {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, contentType)
	}
	if int64(len(data)) > s.maxFileBytes {
		return domain.Document{}, fmt.Errorf(
			"%w: %d bytes over the %d byte limit", domain.ErrFileTooLarge, len(data), s.maxFileBytes,
		)
	}

	now := time.Now()
	doc := domain.Document{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		FileName:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		BlobKey:     blob.ObjectKey(tenantID, filename, now),
		UploadedBy:  userID,
		UploadedAt:  now,
	}

	if err := s.blobs.Put(ctx, doc.BlobKey, bytes.NewReader(data), doc.SizeBytes, contentType); err != nil {
		return domain.Document{}, fmt.Errorf("store blob: %w", err)
	}

	if err := s.docs.Create(ctx, &doc); err != nil {
		s.logger.Warn("document metadata write failed after blob upload, blob orphaned",
			zap.String("tenant_id", tenantID),
			zap.String("blob_key", doc.BlobKey),
			zap.Error(err),
		)
		return domain.Document{}, fmt.Errorf("create document record: %w", err)
	}

	s.attachDownloadURL(ctx, &doc)
	return doc, nil
}

// Process extracts text, chunks it, embeds each chunk, persists the
// chunks, and marks the document processed. An embedding failure
// partway through leaves earlier chunks persisted and the document
// unprocessed; re-running Process is the manual retry path.
func (s *Service) Process(ctx context.Context, tenantID, docID string, data []byte) (domain.Document, error) {
	doc, err := s.docs.Get(ctx, tenantID, docID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}

	text, err := s.extractor(doc.FileName, doc.ContentType, data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract text: %w", err)
	}

	parts := chunker.Split(text, s.chunkMax)

	now := time.Now()
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		result, err := s.embedder.Embed(ctx, part)
		if err != nil {
			// Persist nothing further; chunks already written stay.
			if len(chunks) > 0 {
				if cerr := s.chunks.CreateBatch(ctx, chunks); cerr != nil {
					s.logger.Warn("failed to persist partial chunks", zap.Error(cerr))
				}
			}
			return domain.Document{}, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: docID,
			TenantID:   tenantID,
			Index:      i,
			Text:       part,
			Vector:     result.Embedding,
			CreatedAt:  now,
		})
	}

	if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
		return domain.Document{}, fmt.Errorf("persist chunks: %w", err)
	}

	if err := s.docs.MarkProcessed(ctx, tenantID, docID, len(chunks)); err != nil {
		return domain.Document{}, fmt.Errorf("mark processed: %w", err)
	}

	doc.Processed = true
	doc.ChunkCount = len(chunks)
	s.attachDownloadURL(ctx, &doc)
	return doc, nil
}

// UploadAndProcess runs the full ingestion pipeline for one file.
func (s *Service) UploadAndProcess(
	ctx context.Context, tenantID, userID, filename, contentType string, data []byte,
) (domain.Document, error) {
	doc, err := s.Upload(ctx, tenantID, userID, filename, contentType, data)
	if err != nil {
		return domain.Document{}, err
	}
	return s.Process(ctx, tenantID, doc.ID, data)
}

// Get returns one document with a fresh download URL.
func (s *Service) Get(ctx context.Context, tenantID, docID string) (domain.Document, error) {
	doc, err := s.docs.Get(ctx, tenantID, docID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	s.attachDownloadURL(ctx, &doc)
	return doc, nil
}

// List returns all of a tenant's documents, newest first.
func (s *Service) List(ctx context.Context, tenantID string) ([]domain.Document, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	docs, err := s.docs.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document's chunks, blob, and metadata record, in
// that order, so retrieval never sees chunks of a half-deleted doc.
func (s *Service) Delete(ctx context.Context, tenantID, docID string) error {
	doc, err := s.docs.Get(ctx, tenantID, docID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	removed, err := s.chunks.DeleteByDocument(ctx, tenantID, docID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	s.logger.Info("deleted document chunks",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", docID),
		zap.Int("chunks", removed),
	)

	if err := s.blobs.Remove(ctx, doc.BlobKey); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}

	if err := s.docs.Delete(ctx, tenantID, docID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	return nil
}

func (s *Service) attachDownloadURL(ctx context.Context, doc *domain.Document) {
	url, err := s.blobs.PresignedGetURL(ctx, doc.BlobKey, s.urlTTL)
	if err != nil {
		s.logger.Warn("failed to presign download url",
			zap.String("blob_key", doc.BlobKey), zap.Error(err))
		return
	}
	doc.DownloadURL = url
}
