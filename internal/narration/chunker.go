// Package narration implements the text-to-narration pipeline: chunking,
// word-level alignment, exact-duration stitching, and document matching.
package narration

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"github.com/readaloudapp/readaloud-server/internal/domain"
)

// BuildSegments splits cleaned text into bounded, sentence-aligned segments
// and computes each segment's content-addressed cache key. A text that fits
// within maxChars yields exactly one segment.
func BuildSegments(text string, maxChars, formatVersion int, voiceID string) []domain.Segment {
	chunks := SplitText(text, maxChars)
	segments := make([]domain.Segment, len(chunks))
	for i, chunk := range chunks {
		segments[i] = domain.Segment{
			Index:    i,
			Text:     chunk,
			CacheKey: CacheKey(formatVersion, chunk, voiceID),
		}
	}
	return segments
}

// SplitText splits text on sentence boundaries and greedily packs sentences
// into chunks of at most maxChars characters. A sentence boundary is
// sentence-ending punctuation followed by whitespace. Single sentences
// longer than maxChars are hard-split on whitespace.
func SplitText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range splitSentences(text) {
		for _, piece := range hardSplit(sentence, maxChars) {
			pieceLen := len([]rune(piece))
			// +1 for the joining space when the chunk is non-empty.
			if currentLen > 0 && currentLen+1+pieceLen > maxChars {
				flush()
			}
			if currentLen > 0 {
				current.WriteByte(' ')
				currentLen++
			}
			current.WriteString(piece)
			currentLen += pieceLen
		}
	}
	flush()

	return chunks
}

// CacheKey derives the deterministic content address for a segment.
// The format version participates in the digest so bumping it invalidates
// every previously cached key at once; this is how duration-semantics
// changes orphan stale audio instead of serving it with wrong metadata.
func CacheKey(formatVersion int, segmentText, voiceID string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(formatVersion)))
	h.Write([]byte{0})
	h.Write([]byte(segmentText))
	h.Write([]byte{0})
	h.Write([]byte(voiceID))
	return hex.EncodeToString(h.Sum(nil))
}

// splitSentences breaks text into sentences. The terminator punctuation
// stays attached to its sentence; inter-sentence whitespace is dropped.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	i := 0
	for i < len(runes) {
		if isSentenceEnd(runes[i]) {
			// Consume a run of terminators ("?!", "...").
			for i+1 < len(runes) && isSentenceEnd(runes[i+1]) {
				i++
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				sentence := strings.TrimSpace(string(runes[start : i+1]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				i++
				for i < len(runes) && unicode.IsSpace(runes[i]) {
					i++
				}
				start = i
				continue
			}
		}
		i++
	}

	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// hardSplit breaks an oversized sentence into maxChars-sized pieces at word
// boundaries, falling back to a mid-word cut only for a single word longer
// than maxChars.
func hardSplit(sentence string, maxChars int) []string {
	if len([]rune(sentence)) <= maxChars {
		return []string{sentence}
	}

	var pieces []string
	var current []rune

	for _, word := range strings.Fields(sentence) {
		wr := []rune(word)
		for len(wr) > maxChars {
			if len(current) > 0 {
				pieces = append(pieces, string(current))
				current = current[:0]
			}
			pieces = append(pieces, string(wr[:maxChars]))
			wr = wr[maxChars:]
		}
		if len(current) > 0 && len(current)+1+len(wr) > maxChars {
			pieces = append(pieces, string(current))
			current = current[:0]
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, wr...)
	}
	if len(current) > 0 {
		pieces = append(pieces, string(current))
	}

	return pieces
}
