package chi

import (
	"time"

	"github.com/calixflow/knowledge/internal/domain"
	chatuc "github.com/calixflow/knowledge/internal/usecase/chat"
)

type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeValidationFailed       errorCode = "validation_failed"
	codeDocumentNotFound       errorCode = "document_not_found"
	codeUnsupportedFileType    errorCode = "unsupported_file_type"
	codeFileTooLarge           errorCode = "file_too_large"
	codeVectorDimMismatch      errorCode = "vector_dim_mismatch"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeChatProviderError      errorCode = "chat_provider_error"
	codeInternalError          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type documentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	DownloadURL string    `json:"download_url,omitempty"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Processed   bool      `json:"processed"`
	ChunkCount  int       `json:"chunk_count"`
}

type documentListResponse struct {
	Items []documentResponse `json:"items"`
	Total int                `json:"total"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []chatMessage `json:"history,omitempty"`
}

func (r chatRequest) historyMessages() []domain.Message {
	if len(r.History) == 0 {
		return nil
	}
	out := make([]domain.Message, len(r.History))
	for i, m := range r.History {
		role := domain.RoleUser
		if m.Role == string(domain.RoleAssistant) {
			role = domain.RoleAssistant
		}
		out[i] = domain.Message{Role: role, Content: m.Content}
	}
	return out
}

type chatSource struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type chatResponse struct {
	Answer      string       `json:"answer"`
	Sources     []chatSource `json:"sources"`
	TotalTokens int          `json:"total_tokens,omitempty"`
}

type streamDelta struct {
	Delta string `json:"delta"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func documentToResponse(d domain.Document) documentResponse {
	return documentResponse{
		ID:          d.ID,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		DownloadURL: d.DownloadURL,
		UploadedBy:  d.UploadedBy,
		UploadedAt:  d.UploadedAt,
		Processed:   d.Processed,
		ChunkCount:  d.ChunkCount,
	}
}

func answerToResponse(a chatuc.Answer) chatResponse {
	sources := make([]chatSource, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = chatSource{
			DocumentID: s.DocumentID,
			ChunkIndex: s.Index,
			Text:       s.Text,
			Score:      s.Score,
		}
	}
	return chatResponse{
		Answer:      a.Text,
		Sources:     sources,
		TotalTokens: a.Usage.TotalTokens,
	}
}
