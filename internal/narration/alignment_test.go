package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readaloudapp/readaloud-server/internal/domain"
)

func charAlignment(chars string, startStep, dur float64) *domain.CharacterAlignment {
	a := &domain.CharacterAlignment{}
	for i, r := range []rune(chars) {
		start := startStep * float64(i)
		a.Characters = append(a.Characters, string(r))
		a.StartSec = append(a.StartSec, start)
		a.EndSec = append(a.EndSec, start+dur)
	}
	return a
}

func TestBuildWordBoundaries_SingleWord(t *testing.T) {
	// "hello": five characters at 100ms intervals, each 100ms long.
	a := charAlignment("hello", 0.1, 0.1)

	boundaries := BuildWordBoundaries(a, "hello")

	require.Len(t, boundaries, 1)
	b := boundaries[0]
	assert.Equal(t, "hello", b.Text)
	assert.Equal(t, int64(0), b.StartMs)
	assert.Equal(t, int64(500), b.EndMs)
	assert.Equal(t, 0, b.CharOffset)
	assert.Equal(t, 5, b.CharLength)
}

func TestBuildWordBoundaries_WhitespaceSplits(t *testing.T) {
	a := charAlignment("hi there", 0.1, 0.1)

	boundaries := BuildWordBoundaries(a, "hi there")

	require.Len(t, boundaries, 2)

	assert.Equal(t, "hi", boundaries[0].Text)
	assert.Equal(t, int64(0), boundaries[0].StartMs)
	assert.Equal(t, int64(200), boundaries[0].EndMs)
	assert.Equal(t, 0, boundaries[0].CharOffset)

	assert.Equal(t, "there", boundaries[1].Text)
	assert.Equal(t, int64(300), boundaries[1].StartMs)
	assert.Equal(t, int64(800), boundaries[1].EndMs)
	assert.Equal(t, 3, boundaries[1].CharOffset)
	assert.Equal(t, 5, boundaries[1].CharLength)
}

func TestBuildWordBoundaries_RepeatedWords(t *testing.T) {
	a := charAlignment("go go go", 0.1, 0.1)

	boundaries := BuildWordBoundaries(a, "go go go")

	require.Len(t, boundaries, 3)
	assert.Equal(t, 0, boundaries[0].CharOffset)
	assert.Equal(t, 3, boundaries[1].CharOffset)
	assert.Equal(t, 6, boundaries[2].CharOffset)
}

func TestBuildWordBoundaries_EmptyAlignment(t *testing.T) {
	assert.Nil(t, BuildWordBoundaries(nil, "anything"))
	assert.Nil(t, BuildWordBoundaries(&domain.CharacterAlignment{}, "anything"))
}

func TestBuildWordBoundaries_MismatchedArrays(t *testing.T) {
	a := &domain.CharacterAlignment{
		Characters: []string{"h", "i"},
		StartSec:   []float64{0},
		EndSec:     []float64{0.1, 0.2},
	}
	assert.Nil(t, BuildWordBoundaries(a, "hi"))
}

func TestBuildWordBoundaries_TrailingWordFlushes(t *testing.T) {
	// No trailing whitespace; the last word must still be emitted.
	a := charAlignment("a b", 0.1, 0.1)

	boundaries := BuildWordBoundaries(a, "a b")
	require.Len(t, boundaries, 2)
	assert.Equal(t, "b", boundaries[1].Text)
}

func TestBuildWordBoundaries_AlignmentLongerThanText(t *testing.T) {
	// Provider alignments can carry more characters than the submitted
	// text (normalization, spelled-out numbers). A pinned word that
	// overruns the segment must not break placement of the words after it.
	a := charAlignment("aaaaaa b", 0.1, 0.1)

	boundaries := BuildWordBoundaries(a, "a b")

	require.Len(t, boundaries, 2)
	assert.Equal(t, "aaaaaa", boundaries[0].Text)
	assert.Equal(t, "b", boundaries[1].Text)
	for _, b := range boundaries {
		assert.LessOrEqual(t, b.CharOffset, len("a b"))
	}
	assert.LessOrEqual(t, boundaries[0].CharOffset, boundaries[1].CharOffset)
}

func TestBuildWordBoundaries_OffsetsMonotonic(t *testing.T) {
	text := "the cat and the dog and the bird"
	a := charAlignment(text, 0.05, 0.05)

	boundaries := BuildWordBoundaries(a, text)
	require.Len(t, boundaries, 8)

	prevOffset := -1
	for _, b := range boundaries {
		assert.Greater(t, b.CharOffset, prevOffset)
		assert.Equal(t, b.Text, text[b.CharOffset:b.CharOffset+b.CharLength])
		prevOffset = b.CharOffset
	}
}
