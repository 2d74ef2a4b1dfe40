package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/readaloudapp/readaloud-server/internal/domain"
	"github.com/readaloudapp/readaloud-server/internal/http/response"
)

// CreateNarrationRequest is the body for POST /api/v1/narrations.
type CreateNarrationRequest struct {
	Text    string `json:"text" validate:"required,min=1"`
	VoiceID string `json:"voice_id" validate:"required"`
}

// NarrationSummary is the response body for a created or fetched narration.
// Audio is served separately from /audio; this keeps the JSON surface small.
type NarrationSummary struct {
	ID               string `json:"id"`
	VoiceID          string `json:"voice_id"`
	SegmentCount     int    `json:"segment_count"`
	CachedSegments   int    `json:"cached_segments"`
	TotalDurationMs  int64  `json:"total_duration_ms"`
	WordCount        int    `json:"word_count"`
	DurationDegraded bool   `json:"duration_degraded,omitempty"`
}

// MatchDocumentRequest is the body for POST /api/v1/narrations/{id}/document.
type MatchDocumentRequest struct {
	Tokens []domain.DomWordToken `json:"tokens" validate:"required,min=1,dive"`
}

func summarize(n *domain.Narration) NarrationSummary {
	return NarrationSummary{
		ID:               n.ID,
		VoiceID:          n.VoiceID,
		SegmentCount:     n.SegmentCount,
		CachedSegments:   n.CachedSegments,
		TotalDurationMs:  n.TotalDurationMs,
		WordCount:        len(n.Boundaries),
		DurationDegraded: n.DurationDegraded,
	}
}

// handleCreateNarration runs the narration pipeline for the submitted text.
func (s *Server) handleCreateNarration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateNarrationRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	narration, err := s.narrationService.Narrate(ctx, req.Text, req.VoiceID)
	if err != nil {
		s.logger.Error("Failed to create narration", "error", err, "request_id", getRequestID(ctx))
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, summarize(narration), s.logger)
}

// handleGetNarration returns the summary of an existing narration session.
func (s *Server) handleGetNarration(w http.ResponseWriter, r *http.Request) {
	narration, err := s.narrationService.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, summarize(narration), s.logger)
}

// handleGetNarrationAudio streams the combined audio for a narration.
func (s *Server) handleGetNarrationAudio(w http.ResponseWriter, r *http.Request) {
	narration, err := s.narrationService.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(narration.Audio)))
	if _, err := w.Write(narration.Audio); err != nil {
		s.logger.Error("Failed to write audio response", "error", err, "narration_id", narration.ID)
	}
}

// handleGetNarrationBoundaries returns the global word boundary list.
func (s *Server) handleGetNarrationBoundaries(w http.ResponseWriter, r *http.Request) {
	narration, err := s.narrationService.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"word_boundaries":   narration.Boundaries,
		"total_duration_ms": narration.TotalDurationMs,
		"text":              narration.Text,
	}, s.logger)
}

// handleMatchDocument maps the caller's rendered word tokens onto the
// narration timeline. Callable any number of times per narration; the
// client re-posts after every document re-render.
func (s *Server) handleMatchDocument(w http.ResponseWriter, r *http.Request) {
	narrationID := chi.URLParam(r, "id")

	var req MatchDocumentRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	timing, err := s.narrationService.MatchDocument(narrationID, req.Tokens)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, timing, s.logger)
}

// handleDeleteNarration evicts a narration session.
func (s *Server) handleDeleteNarration(w http.ResponseWriter, r *http.Request) {
	narrationID := chi.URLParam(r, "id")

	if _, err := s.narrationService.Get(narrationID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.narrationService.Delete(narrationID)
	response.NoContent(w)
}
