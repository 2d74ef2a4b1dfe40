package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
		{CodeSynthesisTimeout, http.StatusGatewayTimeout},
		{CodeSynthesisProvider, http.StatusBadGateway},
		{CodeMalformedResponse, http.StatusBadGateway},
		{Code("UNKNOWN"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), "code %s", tt.code)
	}
}

func TestSentinelMatching(t *testing.T) {
	err := SynthesisTimeoutf("segment took longer than %s", "60s")
	assert.True(t, Is(err, ErrSynthesisTimeout))
	assert.False(t, Is(err, ErrSynthesisProvider))
}

func TestWrappedCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ErrSynthesisProvider.WithCause(cause)

	assert.True(t, Is(err, ErrSynthesisProvider))
	assert.Equal(t, cause, Unwrap(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWithSegmentPreservesFields(t *testing.T) {
	err := SynthesisProvider(429, "rate limited").WithSegment(3)

	assert.Equal(t, 3, err.Segment)
	assert.Equal(t, 429, err.UpstreamStatus)
	assert.Equal(t, CodeSynthesisProvider, err.Code)
	assert.True(t, Is(err, ErrSynthesisProvider))
}

func TestWrappingThroughFmtErrorf(t *testing.T) {
	inner := NotFound("narration gone")
	wrapped := fmt.Errorf("lookup failed: %w", inner)

	assert.True(t, Is(wrapped, ErrNotFound))

	var domainErr *Error
	require.True(t, As(wrapped, &domainErr))
	assert.Equal(t, CodeNotFound, domainErr.Code)
}

func TestValidationDetails(t *testing.T) {
	err := ValidationWithDetails("validation failed", map[string]string{"text": "is required"})

	assert.Equal(t, CodeValidation, err.Code)
	assert.NotNil(t, err.Details)
}
