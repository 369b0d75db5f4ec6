package domain

import "time"

// Document is an uploaded knowledge-base file owned by a tenant.
// Created on upload with Processed=false; mutated once when chunking
// completes (Processed=true, ChunkCount set).
type Document struct {
	ID          string
	TenantID    string
	FileName    string
	ContentType string
	SizeBytes   int64
	BlobKey     string
	DownloadURL string
	UploadedBy  string
	UploadedAt  time.Time
	Processed   bool
	ChunkCount  int
}

// Chunk is a bounded slice of a document's extracted text paired with
// its embedding vector. Immutable once created; deleted only alongside
// its owning document. TenantID always equals the parent document's.
type Chunk struct {
	ID         string
	DocumentID string
	TenantID   string
	Index      int
	Text       string
	Vector     []float32
	CreatedAt  time.Time
}

// ScoredChunk is a chunk ranked against a query by cosine similarity.
type ScoredChunk struct {
	Chunk
	Score float64
}
