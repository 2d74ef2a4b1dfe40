// Package id mints the identifiers handed out by the API, such as
// narration session IDs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns "<prefix>-<nanoid>", e.g. "nar-V1StGXR8_Z5jdHi6B-myT".
// The prefix makes IDs self-describing in logs and URLs; the NanoID part
// is 21 URL-safe characters of crypto/rand output.
//
// Fails only when the OS entropy source does.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate panics instead of returning an error. Callers that have no
// sensible recovery from an entropy failure, like minting a narration ID
// mid-request, use this.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
