package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/calixflow/knowledge/internal/domain"
)

// store is the consumer interface for document records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/ingest.DocumentRepository.
type Repo struct {
	store store
}

// New creates a document metadata repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create persists a new document metadata record.
func (r *Repo) Create(ctx context.Context, doc *domain.Document) error {
	key := docKey(doc.TenantID, doc.ID)
	if err := r.store.HSet(ctx, key, buildFields(doc)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a document by tenant and ID.
func (r *Repo) Get(ctx context.Context, tenantID, id string) (domain.Document, error) {
	key := docKey(tenantID, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.Document{}, domain.ErrDocumentNotFound
	}

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseFields(tenantID, id, fields), nil
}

// ListByTenant returns all of a tenant's documents, newest first.
func (r *Repo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Document, error) {
	pattern := docKey(tenantID, "*")
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	docs := make([]domain.Document, 0, len(keys))
	for i, m := range maps {
		if len(m) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		docs = append(docs, parseFields(tenantID, extractDocID(keys[i], tenantID), m))
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// MarkProcessed flips the processed flag and records the chunk count.
func (r *Repo) MarkProcessed(ctx context.Context, tenantID, id string, chunkCount int) error {
	key := docKey(tenantID, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	fields := map[string]string{
		fieldProcessed:  "1",
		fieldChunkCount: fmt.Sprintf("%d", chunkCount),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Delete removes a document metadata record.
func (r *Repo) Delete(ctx context.Context, tenantID, id string) error {
	key := docKey(tenantID, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func docKey(tenantID, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", domain.KeyPrefix, tenantID, id)
}

func extractDocID(key, tenantID string) string {
	prefix := fmt.Sprintf("%sdoc:%s:", domain.KeyPrefix, tenantID)
	return strings.TrimPrefix(key, prefix)
}
