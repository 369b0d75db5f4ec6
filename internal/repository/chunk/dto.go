package chunk

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/calixflow/knowledge/internal/domain"
)

// Hash field names for chunk records.
const (
	fieldText      = "text"
	fieldVector    = "vector"
	fieldCreatedAt = "created_at"
)

// buildFields converts a domain Chunk into a flat map for HSET.
func buildFields(c *domain.Chunk) map[string]string {
	return map[string]string{
		fieldText:      c.Text,
		fieldVector:    vectorToBytes(c.Vector),
		fieldCreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// parseFields converts a flat hash map back into a domain Chunk.
func parseFields(tenantID, documentID string, index int, m map[string]string) domain.Chunk {
	createdAt, _ := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	return domain.Chunk{
		ID:         chunkKey(tenantID, documentID, index),
		DocumentID: documentID,
		TenantID:   tenantID,
		Index:      index,
		Text:       m[fieldText],
		Vector:     bytesToVector(m[fieldVector]),
		CreatedAt:  createdAt,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
