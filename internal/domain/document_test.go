package domain

import "testing"

func TestScoredChunk_PromotesChunkFields(t *testing.T) {
	c := Chunk{DocumentID: "doc-1", TenantID: "agency-1", Index: 2, Text: "some text"}
	sc := ScoredChunk{Chunk: c, Score: 0.87}

	if sc.DocumentID != "doc-1" || sc.TenantID != "agency-1" {
		t.Errorf("chunk identity not accessible through ScoredChunk: %+v", sc)
	}
	if sc.Index != 2 || sc.Text != "some text" {
		t.Errorf("chunk payload not accessible through ScoredChunk: %+v", sc)
	}
	if sc.Score != 0.87 {
		t.Errorf("unexpected score: %f", sc.Score)
	}
}
