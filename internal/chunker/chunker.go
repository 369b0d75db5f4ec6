// Package chunker splits extracted document text into bounded chunks
// on sentence boundaries.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMaxChars is the default chunk size ceiling.
const DefaultMaxChars = 1000

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// Split breaks text into an ordered, non-empty sequence of chunks,
// each at most maxChars long, breaking only at sentence terminators
// (. ! ?). A single sentence longer than maxChars becomes its own
// oversized chunk. Text without any terminator, including empty text,
// yields exactly one chunk.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	sentences := sentenceRe.FindAllString(text, -1)
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var kept []string
	for _, s := range sentences {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return []string{strings.TrimSpace(text)}
	}

	var chunks []string
	var current strings.Builder
	for _, s := range kept {
		if current.Len() > 0 && current.Len()+1+len(s) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
