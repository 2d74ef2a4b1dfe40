// Package domain defines the core types shared across the narration pipeline.
package domain

// Segment is a bounded, sentence-aligned slice of the input text that is
// synthesized independently. Segments are immutable once created by the
// chunker; only the cache persists them past synthesis.
type Segment struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	CacheKey string `json:"cache_key"`
}

// CharacterAlignment holds per-character timing returned by the synthesis
// provider as parallel arrays. It may be absent or malformed, in which case
// downstream code treats it as empty rather than failing.
type CharacterAlignment struct {
	Characters []string  `json:"characters"`
	StartSec   []float64 `json:"character_start_times_seconds"`
	EndSec     []float64 `json:"character_end_times_seconds"`
}

// Empty reports whether the alignment carries no usable timing data.
// Mismatched array lengths count as empty so a malformed provider response
// degrades to "no highlighting" instead of an error.
func (a *CharacterAlignment) Empty() bool {
	if a == nil || len(a.Characters) == 0 {
		return true
	}
	return len(a.StartSec) != len(a.Characters) || len(a.EndSec) != len(a.Characters)
}

// LocalWordBoundary is per-word timing relative to its own segment's audio.
// Boundaries are time-ordered within a segment and CharOffset is monotonically
// non-decreasing across the list.
type LocalWordBoundary struct {
	Text       string `json:"text"`
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
	CharOffset int    `json:"char_offset"` // offset into the segment text
	CharLength int    `json:"char_length"`
}

// SegmentAudio is the synthesized audio for one segment plus its exact
// measured duration. ExactDurationMs comes from frame-level parsing, never
// from alignment data: boundary-derived durations exclude trailing silence
// and under-count the true length.
type SegmentAudio struct {
	Bytes           []byte `json:"bytes"`
	ExactDurationMs int64  `json:"exact_duration_ms"`
	// DurationEstimated is set when frame parsing failed and the duration
	// fell back to a byte-length estimate.
	DurationEstimated bool `json:"duration_estimated,omitempty"`
}

// GlobalWordBoundary is a LocalWordBoundary re-based onto the combined
// timeline: times are offset by the cumulative exact duration of all
// preceding segments, and CharOffset is absolute within the full text.
type GlobalWordBoundary struct {
	Text       string `json:"text"`
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
	CharOffset int    `json:"char_offset"` // offset into the full concatenated text
	CharLength int    `json:"char_length"`
	Segment    int    `json:"segment"`
}

// DomWordToken is a literal word of the rendered document in reading order.
// PositionRef is an opaque reference owned by the document collaborator; the
// core only hands back indices into the token list.
type DomWordToken struct {
	Text        string `json:"text"`
	PositionRef string `json:"position_ref"`
}

// TimingSource says how a DOM token received its timing.
type TimingSource string

const (
	// TimingMatched means the token matched an alignment word directly.
	TimingMatched TimingSource = "matched"
	// TimingInterpolated means the token's timing was linearly interpolated
	// between its nearest matched neighbors.
	TimingInterpolated TimingSource = "interpolated"
)

// DomTiming is the resolved timing for one DOM token. AlignmentIndex is only
// meaningful when Source is TimingMatched.
type DomTiming struct {
	StartMs        int64        `json:"start_ms"`
	EndMs          int64        `json:"end_ms"`
	Source         TimingSource `json:"source"`
	AlignmentIndex int          `json:"alignment_index,omitempty"`
}

// DocumentTiming is the full result of matching a rendered document against
// the global alignment word list. AlignmentToDom is total over alignment
// indices and monotonically non-decreasing.
type DocumentTiming struct {
	Tokens         []DomTiming `json:"tokens"`
	AlignmentToDom []int       `json:"alignment_to_dom"`
	// Incomplete is set when at least one token had to be interpolated.
	// It is a quality flag, not an error.
	Incomplete bool `json:"incomplete"`
}

// Narration is the session-scoped output of the pipeline: combined audio,
// global word boundaries, and the concatenated text the boundaries index into.
type Narration struct {
	ID              string               `json:"id"`
	VoiceID         string               `json:"voice_id"`
	Text            string               `json:"text"`
	Audio           []byte               `json:"-"`
	Boundaries      []GlobalWordBoundary `json:"word_boundaries"`
	TotalDurationMs int64                `json:"total_duration_ms"`
	SegmentCount    int                  `json:"segment_count"`
	CachedSegments  int                  `json:"cached_segments"`
	// DurationDegraded is set when at least one segment's duration was
	// estimated instead of measured exactly.
	DurationDegraded bool `json:"duration_degraded,omitempty"`
}
