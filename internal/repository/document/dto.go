package document

import (
	"strconv"
	"time"

	"github.com/calixflow/knowledge/internal/domain"
)

// Hash field names for document records.
const (
	fieldFileName    = "file_name"
	fieldContentType = "content_type"
	fieldSizeBytes   = "size_bytes"
	fieldBlobKey     = "blob_key"
	fieldUploadedBy  = "uploaded_by"
	fieldUploadedAt  = "uploaded_at"
	fieldProcessed   = "processed"
	fieldChunkCount  = "chunk_count"
)

// buildFields converts a domain Document into a flat map for HSET.
func buildFields(doc *domain.Document) map[string]string {
	processed := "0"
	if doc.Processed {
		processed = "1"
	}
	return map[string]string{
		fieldFileName:    doc.FileName,
		fieldContentType: doc.ContentType,
		fieldSizeBytes:   strconv.FormatInt(doc.SizeBytes, 10),
		fieldBlobKey:     doc.BlobKey,
		fieldUploadedBy:  doc.UploadedBy,
		fieldUploadedAt:  doc.UploadedAt.UTC().Format(time.RFC3339Nano),
		fieldProcessed:   processed,
		fieldChunkCount:  strconv.Itoa(doc.ChunkCount),
	}
}

// parseFields converts a flat hash map back into a domain Document.
func parseFields(tenantID, id string, m map[string]string) domain.Document {
	size, _ := strconv.ParseInt(m[fieldSizeBytes], 10, 64)
	chunkCount, _ := strconv.Atoi(m[fieldChunkCount])
	uploadedAt, _ := time.Parse(time.RFC3339Nano, m[fieldUploadedAt])

	return domain.Document{
		ID:          id,
		TenantID:    tenantID,
		FileName:    m[fieldFileName],
		ContentType: m[fieldContentType],
		SizeBytes:   size,
		BlobKey:     m[fieldBlobKey],
		UploadedBy:  m[fieldUploadedBy],
		UploadedAt:  uploadedAt,
		Processed:   m[fieldProcessed] == "1",
		ChunkCount:  chunkCount,
	}
}
