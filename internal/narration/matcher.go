package narration

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/readaloudapp/readaloud-server/internal/domain"
)

const (
	// narrowWindow is how far ahead of the matching pointer a DOM token
	// looks for its alignment word in the common case.
	narrowWindow = 5

	// wideWindow is the retry horizon for tokens the narrow window missed.
	// Provider text normalization can insert words (a currency symbol
	// expanding into several spoken words), pushing the real match further
	// ahead than the narrow window reaches.
	wideWindow = 15

	// interpolatedEndFraction is how much of the per-token step a synthetic
	// boundary's end time covers. Trailing below the full step avoids
	// zero-length highlights while keeping synthetic boundaries disjoint.
	interpolatedEndFraction = 0.8
)

// tokenMatch is the per-token outcome of the matching pass. The zero value
// means unmatched; there is no sentinel timing value that could be mistaken
// for a real one.
type tokenMatch struct {
	ok       bool
	alignIdx int
}

// MatchDocument aligns the rendered document's word tokens against the
// global alignment word list, producing timing for every token and the
// reverse alignment-to-DOM map used for click-to-seek.
//
// A monotonic pointer walks the alignment list; each DOM token searches a
// bounded forward window for a normalized exact or mutual-containment match.
// Tokens that miss both windows stay unmatched through the first pass and
// receive linearly interpolated timing afterward, so matching never fails
// globally: the worst case is a fully interpolated result with approximate
// highlighting over playable audio.
func MatchDocument(tokens []domain.DomWordToken, words []domain.GlobalWordBoundary, totalDurationMs int64) *domain.DocumentTiming {
	normWords := make([]string, len(words))
	for i, w := range words {
		normWords[i] = normalizeWord(w.Text)
	}

	matches := make([]tokenMatch, len(tokens))
	alignIdx := 0

	for ti, tok := range tokens {
		normTok := normalizeWord(tok.Text)
		idx, ok := searchWindow(normTok, normWords, alignIdx, narrowWindow)
		if !ok {
			idx, ok = searchWindow(normTok, normWords, alignIdx, wideWindow)
		}
		if ok {
			matches[ti] = tokenMatch{ok: true, alignIdx: idx}
			alignIdx = idx + 1
		}
	}

	result := &domain.DocumentTiming{
		Tokens:         make([]domain.DomTiming, len(tokens)),
		AlignmentToDom: make([]int, len(words)),
	}

	for ti, m := range matches {
		if m.ok {
			result.Tokens[ti] = domain.DomTiming{
				StartMs:        words[m.alignIdx].StartMs,
				EndMs:          words[m.alignIdx].EndMs,
				Source:         domain.TimingMatched,
				AlignmentIndex: m.alignIdx,
			}
		} else {
			result.Incomplete = true
		}
	}

	interpolateUnmatched(result.Tokens, matches, totalDurationMs)
	buildReverseMap(result.AlignmentToDom, matches)

	return result
}

// searchWindow scans a forward window of alignment words for a match.
// Empty normalizations never match; a token that is pure punctuation gets
// interpolated timing instead of latching onto an arbitrary word.
func searchWindow(normTok string, normWords []string, from, window int) (int, bool) {
	if normTok == "" {
		return 0, false
	}
	limit := min(from+window, len(normWords))
	for i := from; i < limit; i++ {
		if wordsMatch(normTok, normWords[i]) {
			return i, true
		}
	}
	return 0, false
}

// wordsMatch reports an exact or mutual-containment match between two
// normalized words. Containment requires both sides to be at least two
// characters; this deliberately trades some precision on short common
// substrings for recall on provider-normalized forms ("1st" vs "first"
// fails, but "dont" vs "don" matches).
func wordsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// interpolateUnmatched assigns timing to runs of consecutive unmatched
// tokens by linearly distributing the gap between the nearest matched
// neighbors. Before the first match the run starts at zero; after the last
// match it ends at the total duration.
func interpolateUnmatched(timings []domain.DomTiming, matches []tokenMatch, totalDurationMs int64) {
	i := 0
	for i < len(matches) {
		if matches[i].ok {
			i++
			continue
		}

		// Find the full unmatched run [i, j).
		j := i
		for j < len(matches) && !matches[j].ok {
			j++
		}

		var prevEnd int64
		if i > 0 {
			prevEnd = timings[i-1].EndMs
		}
		nextStart := totalDurationMs
		if j < len(matches) {
			nextStart = timings[j].StartMs
		}
		if nextStart < prevEnd {
			nextStart = prevEnd
		}

		step := float64(nextStart-prevEnd) / float64(j-i)
		for k := i; k < j; k++ {
			start := float64(prevEnd) + step*float64(k-i)
			timings[k] = domain.DomTiming{
				StartMs: int64(start),
				EndMs:   int64(start + step*interpolatedEndFraction),
				Source:  domain.TimingInterpolated,
			}
		}

		i = j
	}
}

// buildReverseMap fills the alignment-to-DOM map. Alignment indices the
// matcher consumed point at their DOM token; indices it skipped point at the
// nearest preceding matched DOM index (0 before the first match). The result
// is total and monotonically non-decreasing, so seeking by alignment index
// always lands on a stable DOM position.
func buildReverseMap(alignToDom []int, matches []tokenMatch) {
	consumed := make(map[int]int, len(matches))
	for domIdx, m := range matches {
		if m.ok {
			consumed[m.alignIdx] = domIdx
		}
	}

	lastDom := 0
	for a := range alignToDom {
		if domIdx, ok := consumed[a]; ok {
			lastDom = domIdx
		}
		alignToDom[a] = lastDom
	}
}

// normalizeWord lowercases a word and strips everything that is not a letter
// or digit. NFKD decomposition first splits accented characters so their
// combining marks drop out, matching the provider's plain-ASCII tendencies.
func normalizeWord(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
