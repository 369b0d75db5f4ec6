package chunker

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	chunks := Split("", DefaultMaxChars)
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk for empty input, got %d", len(chunks))
	}
}

func TestSplit_NoPunctuation(t *testing.T) {
	chunks := Split("no punctuation here", DefaultMaxChars)
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0] != "no punctuation here" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	text := "First sentence. Second sentence! Third sentence?"
	chunks := Split(text, 20)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	for _, c := range chunks {
		if len(c) > 20 {
			t.Fatalf("chunk exceeds max: %q", c)
		}
	}
}

func TestSplit_PacksUpToMax(t *testing.T) {
	text := "Aaa. Bbb. Ccc. Ddd."
	chunks := Split(text, 9)

	// "Aaa. Bbb." is 9 chars, so pairs pack together.
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "Aaa. Bbb." || chunks[1] != "Ccc. Ddd." {
		t.Fatalf("unexpected packing: %v", chunks)
	}
}

func TestSplit_OversizedSentenceKept(t *testing.T) {
	long := strings.Repeat("x", 50) + "."
	chunks := Split("Short. "+long+" Tail.", 30)

	found := false
	for _, c := range chunks {
		if c == long {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized sentence must become its own chunk: %v", chunks)
	}
}

func TestSplit_OrderPreserved(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	joined := strings.Join(Split(text, 10), " ")

	order := []string{"One.", "Two.", "Three.", "Four.", "Five."}
	last := -1
	for _, s := range order {
		idx := strings.Index(joined, s)
		if idx < 0 {
			t.Fatalf("sentence %q lost", s)
		}
		if idx <= last {
			t.Fatalf("sentence %q out of order", s)
		}
		last = idx
	}
}

func TestSplit_NeverExceedsMaxExceptSingleSentence(t *testing.T) {
	text := strings.Repeat("A sentence of some length here. ", 100)
	for _, c := range Split(text, 120) {
		if len(c) > 120 {
			t.Fatalf("chunk over max without oversized sentence: %d chars", len(c))
		}
	}
}
