package chi

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	chipkg "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/calixflow/knowledge/internal/domain"
	chatuc "github.com/calixflow/knowledge/internal/usecase/chat"
	ingestuc "github.com/calixflow/knowledge/internal/usecase/ingest"
)

// memDocRepo is an in-memory DocumentRepository for handler tests.
type memDocRepo struct {
	mu   sync.Mutex
	docs map[string]domain.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]domain.Document)}
}

func (m *memDocRepo) key(tenantID, id string) string { return tenantID + "/" + id }

func (m *memDocRepo) Create(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[m.key(doc.TenantID, doc.ID)] = *doc
	return nil
}

func (m *memDocRepo) Get(_ context.Context, tenantID, id string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[m.key(tenantID, id)]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *memDocRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, d := range m.docs {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *memDocRepo) MarkProcessed(_ context.Context, tenantID, id string, chunkCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[m.key(tenantID, id)]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.Processed = true
	doc.ChunkCount = chunkCount
	m.docs[m.key(tenantID, id)] = doc
	return nil
}

func (m *memDocRepo) Delete(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[m.key(tenantID, id)]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, m.key(tenantID, id))
	return nil
}

type memChunkRepo struct {
	mu     sync.Mutex
	chunks []domain.Chunk
}

func (m *memChunkRepo) CreateBatch(_ context.Context, cs []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, cs...)
	return nil
}

func (m *memChunkRepo) DeleteByDocument(_ context.Context, tenantID, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.chunks[:0]
	removed := 0
	for _, c := range m.chunks {
		if c.TenantID == tenantID && c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.chunks = kept
	return removed, nil
}

type memBlobStore struct{}

func (memBlobStore) Put(context.Context, string, io.Reader, int64, string) error { return nil }
func (memBlobStore) Remove(context.Context, string) error                        { return nil }
func (memBlobStore) PresignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.local/" + key, nil
}

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

type stubRetriever struct {
	chunks []domain.ScoredChunk
	err    error
}

func (s stubRetriever) Search(context.Context, string, string, int) ([]domain.ScoredChunk, error) {
	return s.chunks, s.err
}

type stubChatModel struct {
	answer string
	err    error
}

func (s stubChatModel) Complete(context.Context, string, string) (domain.ChatResult, error) {
	if s.err != nil {
		return domain.ChatResult{}, s.err
	}
	return domain.ChatResult{Text: s.answer, TotalTokens: 10}, nil
}

func (s stubChatModel) Stream(
	_ context.Context, _, _ string, onDelta domain.StreamHandler,
) (domain.ChatResult, error) {
	if s.err != nil {
		return domain.ChatResult{}, s.err
	}
	for _, r := range s.answer {
		if err := onDelta(string(r)); err != nil {
			return domain.ChatResult{}, err
		}
	}
	return domain.ChatResult{Text: s.answer}, nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	router *chipkg.Mux
	docs   *memDocRepo
	chunks *memChunkRepo
}

func newTestEnv(model domain.ChatModel, retriever chatuc.Retriever, dbErr error) *testEnv {
	docs := newMemDocRepo()
	chunks := &memChunkRepo{}
	logger := zap.NewNop()

	ingestSvc := ingestuc.New(docs, chunks, memBlobStore{}, fixedEmbedder{vec: []float32{1, 0}}, logger)
	chatSvc := chatuc.New(retriever, model, logger)

	srv := NewServer(ingestSvc, chatSvc, okPinger{err: dbErr}, nil, 0, logger)
	r := chipkg.NewRouter()
	srv.Routes(r)

	return &testEnv{router: r, docs: docs, chunks: chunks}
}
