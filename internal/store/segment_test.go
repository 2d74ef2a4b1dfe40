package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/domain"
	"github.com/readaloudapp/readaloud-server/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := Open(config.CacheConfig{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSegment_PutAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entry := &SegmentEntry{
		Audio: []byte{0x01, 0x02, 0x03},
		Alignment: &domain.CharacterAlignment{
			Characters: []string{"h", "i"},
			StartSec:   []float64{0, 0.1},
			EndSec:     []float64{0.1, 0.2},
		},
	}

	require.NoError(t, st.PutSegment(ctx, 2, "abc123", entry))

	got, err := st.GetSegment(ctx, 2, "abc123")
	require.NoError(t, err)
	assert.Equal(t, entry.Audio, got.Audio)
	assert.Equal(t, entry.Alignment, got.Alignment)
}

func TestSegment_MissingIsNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetSegment(context.Background(), 2, "nothere")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSegment_NilAlignmentSurvives(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutSegment(ctx, 2, "noalign", &SegmentEntry{Audio: []byte{0xFF}}))

	got, err := st.GetSegment(ctx, 2, "noalign")
	require.NoError(t, err)
	assert.Nil(t, got.Alignment)
	assert.Equal(t, []byte{0xFF}, got.Audio)
}

func TestSegment_FormatVersionPartitions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutSegment(ctx, 1, "samedigest", &SegmentEntry{Audio: []byte{0x01}}))

	// A version bump must not see the old entry.
	_, err := st.GetSegment(ctx, 2, "samedigest")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	got, err := st.GetSegment(ctx, 1, "samedigest")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got.Audio)
}

func TestSegment_OverwriteIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutSegment(ctx, 2, "dup", &SegmentEntry{Audio: []byte{0x01}}))
	require.NoError(t, st.PutSegment(ctx, 2, "dup", &SegmentEntry{Audio: []byte{0x01}}))

	got, err := st.GetSegment(ctx, 2, "dup")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got.Audio)
}

func TestSegment_CancelledContext(t *testing.T) {
	st := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.GetSegment(ctx, 2, "any")
	assert.ErrorIs(t, err, context.Canceled)

	err = st.PutSegment(ctx, 2, "any", &SegmentEntry{Audio: []byte{0x01}})
	assert.ErrorIs(t, err, context.Canceled)
}
