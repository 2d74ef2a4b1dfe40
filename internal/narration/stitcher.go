package narration

import (
	"bytes"
	"cmp"
	"slices"
	"strings"

	"github.com/readaloudapp/readaloud-server/internal/domain"
	"github.com/readaloudapp/readaloud-server/pkg/mpeg"
)

// SegmentResult pairs a segment with its synthesized audio and local word
// boundaries, ready for stitching.
type SegmentResult struct {
	Segment    domain.Segment
	Audio      domain.SegmentAudio
	Boundaries []domain.LocalWordBoundary
}

// Stitched is the combined narration: one audio stream, one timeline.
type Stitched struct {
	Audio            []byte
	Boundaries       []domain.GlobalWordBoundary
	TotalDurationMs  int64
	Text             string
	DurationDegraded bool
}

// Stitch concatenates segment audio in original index order and remaps each
// segment's local boundaries onto the global timeline.
//
// Offsets come exclusively from each segment's exact measured duration, never
// from its last word boundary: alignment-derived durations exclude trailing
// silence and accumulate drift across segments. Synthesis may have completed
// out of order; stitching is strictly sequential.
//
// The combined stream's container duration metadata is rewritten afterward so
// players report the full stitched length instead of the first segment's.
func Stitch(results []SegmentResult) *Stitched {
	slices.SortFunc(results, func(a, b SegmentResult) int {
		return cmp.Compare(a.Segment.Index, b.Segment.Index)
	})

	var audio bytes.Buffer
	var text strings.Builder
	var boundaries []domain.GlobalWordBoundary
	var totalMs int64
	var degraded bool
	charBase := 0

	for i, r := range results {
		if i > 0 {
			// Segments join with a single space in the concatenated text.
			text.WriteByte(' ')
			charBase++
		}
		text.WriteString(r.Segment.Text)
		audio.Write(r.Audio.Bytes)

		for _, b := range r.Boundaries {
			boundaries = append(boundaries, domain.GlobalWordBoundary{
				Text:       b.Text,
				StartMs:    b.StartMs + totalMs,
				EndMs:      b.EndMs + totalMs,
				CharOffset: b.CharOffset + charBase,
				CharLength: b.CharLength,
				Segment:    r.Segment.Index,
			})
		}

		totalMs += r.Audio.ExactDurationMs
		charBase += len(r.Segment.Text)
		degraded = degraded || r.Audio.DurationEstimated
	}

	return &Stitched{
		Audio:            mpeg.WriteTotalDuration(audio.Bytes(), totalMs),
		Boundaries:       boundaries,
		TotalDurationMs:  totalMs,
		Text:             text.String(),
		DurationDegraded: degraded,
	}
}
