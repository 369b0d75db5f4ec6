package chunk

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/calixflow/knowledge/internal/db"
	"github.com/calixflow/knowledge/internal/domain"
)

// store is the consumer interface for chunk records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the chunk persistence contracts of the ingest and
// retrieval use cases.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// CreateBatch persists a document's chunks in one pipelined round-trip.
// Chunks are immutable; re-processing a document writes a fresh set.
func (r *Repo) CreateBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		if c.TenantID == "" || c.DocumentID == "" {
			return fmt.Errorf("chunk %d missing tenant or document id: %w", i, domain.ErrInvalidRequest)
		}
		items[i] = db.HashSetItem{
			Key:    chunkKey(c.TenantID, c.DocumentID, c.Index),
			Fields: buildFields(&c),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// ListByTenant loads every chunk of the tenant's knowledge base,
// ordered by document then chunk index.
func (r *Repo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Chunk, error) {
	pattern := fmt.Sprintf("%schunk:%s:*", domain.KeyPrefix, tenantID)
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

	chunks := make([]domain.Chunk, 0, len(keys))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		docID, index, ok := parseChunkKey(keys[i], tenantID)
		if !ok {
			continue
		}
		chunks = append(chunks, parseFields(tenantID, docID, index, m))
	}

	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

// DeleteByDocument removes every chunk derived from a document.
// Returns the number of chunks removed.
func (r *Repo) DeleteByDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	pattern := fmt.Sprintf("%schunk:%s:%s:*", domain.KeyPrefix, tenantID, documentID)
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("del multi: %w", err)
	}
	return len(keys), nil
}

func chunkKey(tenantID, documentID string, index int) string {
	return fmt.Sprintf("%schunk:%s:%s:%06d", domain.KeyPrefix, tenantID, documentID, index)
}

// parseChunkKey extracts the document ID and chunk index from a key
// of the form calixkb:chunk:<tenant>:<doc>:<index>.
func parseChunkKey(key, tenantID string) (string, int, bool) {
	prefix := fmt.Sprintf("%schunk:%s:", domain.KeyPrefix, tenantID)
	rest := strings.TrimPrefix(key, prefix)
	if rest == key {
		return "", 0, false
	}
	sep := strings.LastIndexByte(rest, ':')
	if sep < 0 {
		return "", 0, false
	}
	var index int
	if _, err := fmt.Sscanf(rest[sep+1:], "%d", &index); err != nil {
		return "", 0, false
	}
	return rest[:sep], index, true
}
