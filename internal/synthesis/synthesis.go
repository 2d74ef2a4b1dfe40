// Package synthesis defines the contract between the narration pipeline and
// speech synthesis providers.
package synthesis

import (
	"context"

	"github.com/readaloudapp/readaloud-server/internal/domain"
)

// Request describes one segment synthesis call.
type Request struct {
	Text    string
	VoiceID string
}

// Result is the provider's response for one segment. Alignment is nil when
// the provider omitted per-character timing; that is valid and degrades to an
// empty word boundary list downstream, never an error.
type Result struct {
	Audio     []byte
	Alignment *domain.CharacterAlignment
}

// Synthesizer converts text to narrated audio.
//
// Implementations must respect ctx cancellation (abort the in-flight call,
// return no partial bytes) and return typed errors from internal/errors so
// callers can distinguish a timeout from a provider-reported failure.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
}
