package narration

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/domain"
	"github.com/readaloudapp/readaloud-server/internal/errors"
	"github.com/readaloudapp/readaloud-server/internal/id"
	"github.com/readaloudapp/readaloud-server/internal/logger"
	"github.com/readaloudapp/readaloud-server/internal/store"
	"github.com/readaloudapp/readaloud-server/internal/synthesis"
	"github.com/readaloudapp/readaloud-server/pkg/mpeg"
)

// Service orchestrates the narration pipeline: chunking, cached synthesis,
// alignment, duration measurement, and stitching. Finished narrations live in
// an in-process session registry; only segment audio persists across restarts.
type Service struct {
	synth    synthesis.Synthesizer
	store    *store.Store
	logger   *logger.Logger
	cfg      config.NarrationConfig
	flight   singleflight.Group
	sessions *syncMap[string, *domain.Narration]
}

// NewService creates a narration service.
func NewService(synth synthesis.Synthesizer, st *store.Store, cfg config.NarrationConfig, log *logger.Logger) *Service {
	return &Service{
		synth:    synth,
		store:    st,
		logger:   log,
		cfg:      cfg,
		sessions: newSyncMap[string, *domain.Narration](),
	}
}

// segmentOutcome is what a single-flight synthesis call hands to every waiter.
type segmentOutcome struct {
	entry  *store.SegmentEntry
	cached bool
}

// Narrate runs the full pipeline for one text and registers the result as a
// session. Segments are synthesized concurrently up to the configured limit;
// identical segments in flight at the same time collapse into one provider
// call. Cancelling ctx aborts pending synthesis but keeps every segment that
// already reached the cache.
func (s *Service) Narrate(ctx context.Context, text, voiceID string) (*domain.Narration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Validation("text must not be empty")
	}
	if voiceID == "" {
		return nil, errors.Validation("voice_id must not be empty")
	}

	segments := BuildSegments(text, s.cfg.MaxSegmentChars, s.cfg.FormatVersion, voiceID)

	results := make([]SegmentResult, len(segments))
	fromCache := make([]bool, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, seg := range segments {
		g.Go(func() error {
			out, err := s.loadOrSynthesize(gctx, seg, voiceID)
			if err != nil {
				return s.segmentError(err, seg.Index)
			}

			measured := mpeg.Measure(out.entry.Audio)
			if measured.Degraded {
				s.logger.Warn("duration fell back to byte estimate",
					"segment", seg.Index,
					"bytes", len(out.entry.Audio),
				)
			}

			results[i] = SegmentResult{
				Segment: seg,
				Audio: domain.SegmentAudio{
					Bytes:             out.entry.Audio,
					ExactDurationMs:   measured.Ms(),
					DurationEstimated: measured.Degraded,
				},
				Boundaries: BuildWordBoundaries(out.entry.Alignment, seg.Text),
			}
			fromCache[i] = out.cached
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stitched := Stitch(results)

	cachedCount := 0
	for _, c := range fromCache {
		if c {
			cachedCount++
		}
	}

	narration := &domain.Narration{
		ID:               id.MustGenerate("nar"),
		VoiceID:          voiceID,
		Text:             stitched.Text,
		Audio:            stitched.Audio,
		Boundaries:       stitched.Boundaries,
		TotalDurationMs:  stitched.TotalDurationMs,
		SegmentCount:     len(segments),
		CachedSegments:   cachedCount,
		DurationDegraded: stitched.DurationDegraded,
	}
	s.sessions.Store(narration.ID, narration)

	s.logger.Info("narration ready",
		"narration_id", narration.ID,
		"segments", narration.SegmentCount,
		"cached_segments", narration.CachedSegments,
		"total_duration_ms", narration.TotalDurationMs,
		"words", len(narration.Boundaries),
	)
	return narration, nil
}

// loadOrSynthesize resolves one segment: cache hit, or provider call followed
// by a cache write. Concurrent callers for the same cache key share a single
// execution; note that the shared call runs under the first caller's ctx, so
// a waiter can see that caller's cancellation error.
func (s *Service) loadOrSynthesize(ctx context.Context, seg domain.Segment, voiceID string) (*segmentOutcome, error) {
	v, err, _ := s.flight.Do(seg.CacheKey, func() (any, error) {
		entry, err := s.store.GetSegment(ctx, s.cfg.FormatVersion, seg.CacheKey)
		if err == nil {
			return &segmentOutcome{entry: entry, cached: true}, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}

		res, err := s.synth.Synthesize(ctx, synthesis.Request{Text: seg.Text, VoiceID: voiceID})
		if err != nil {
			return nil, err
		}

		entry = &store.SegmentEntry{Audio: res.Audio, Alignment: res.Alignment}
		// A segment that finished synthesizing stays cached even when the
		// narration that requested it is being cancelled.
		putCtx := context.WithoutCancel(ctx)
		if err := s.store.PutSegment(putCtx, s.cfg.FormatVersion, seg.CacheKey, entry); err != nil {
			// The synthesized audio is still good; only reuse is lost.
			s.logger.Warn("segment cache write failed", "error", err, "digest", seg.CacheKey)
		}
		return &segmentOutcome{entry: entry}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*segmentOutcome), nil
}

// segmentError tags a pipeline error with the segment it belongs to.
// Cancellation passes through untagged so callers can recognize their own ctx.
func (s *Service) segmentError(err error, index int) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return domainErr.WithSegment(index)
	}
	return errors.Internalf("segment %d failed", index).WithCause(err).WithSegment(index)
}

// Get returns a registered narration session.
func (s *Service) Get(narrationID string) (*domain.Narration, error) {
	narration, ok := s.sessions.Load(narrationID)
	if !ok {
		return nil, errors.NotFoundf("narration %s not found", narrationID)
	}
	return narration, nil
}

// MatchDocument maps a rendered document's word tokens onto a session's
// global timeline. It can be called repeatedly for the same narration as the
// document re-renders; the session itself is never mutated.
func (s *Service) MatchDocument(narrationID string, tokens []domain.DomWordToken) (*domain.DocumentTiming, error) {
	narration, ok := s.sessions.Load(narrationID)
	if !ok {
		return nil, errors.NotFoundf("narration %s not found", narrationID)
	}
	if len(tokens) == 0 {
		return nil, errors.Validation("tokens must not be empty")
	}

	timing := MatchDocument(tokens, narration.Boundaries, narration.TotalDurationMs)
	if timing.Incomplete {
		s.logger.Debug("document matching incomplete",
			"narration_id", narrationID,
			"tokens", len(tokens),
		)
	}
	return timing, nil
}

// Delete evicts a narration session. Cached segment audio is untouched.
func (s *Service) Delete(narrationID string) {
	s.sessions.Delete(narrationID)
}
