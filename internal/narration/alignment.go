package narration

import (
	"math"
	"strings"
	"unicode"

	"github.com/readaloudapp/readaloud-server/internal/domain"
)

// BuildWordBoundaries converts per-character provider timing into per-word
// timing local to the segment. Consecutive non-whitespace characters
// accumulate into a word; whitespace flushes it. A word's start is its first
// character's start time and its end is its last character's end time.
//
// Character offsets are resolved by forward-searching the segment text from
// the end of the previously placed word, which keeps repeated words anchored
// to distinct positions. The search never moves backward.
//
// An empty or malformed alignment yields an empty list; that is a valid
// degraded state, not an error.
func BuildWordBoundaries(a *domain.CharacterAlignment, segmentText string) []domain.LocalWordBoundary {
	if a.Empty() {
		return nil
	}

	var boundaries []domain.LocalWordBoundary
	var word strings.Builder
	var startSec, endSec float64
	searchFrom := 0

	flush := func() {
		if word.Len() == 0 {
			return
		}
		text := word.String()
		word.Reset()

		offset := strings.Index(segmentText[searchFrom:], text)
		if offset < 0 {
			// Provider normalization produced a word absent from the
			// segment text; pin it to the current position so offsets
			// stay monotonic.
			offset = 0
		}
		offset += searchFrom
		// A pinned word can be longer than the remaining segment text;
		// keep the search position inside bounds for the next flush.
		searchFrom = min(offset+len(text), len(segmentText))

		boundaries = append(boundaries, domain.LocalWordBoundary{
			Text:       text,
			StartMs:    secToMs(startSec),
			EndMs:      secToMs(endSec),
			CharOffset: offset,
			CharLength: len(text),
		})
	}

	for i, ch := range a.Characters {
		if isWhitespace(ch) {
			flush()
			continue
		}
		if word.Len() == 0 {
			startSec = a.StartSec[i]
		}
		endSec = a.EndSec[i]
		word.WriteString(ch)
	}
	flush()

	return boundaries
}

func isWhitespace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func secToMs(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}
