package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("nar")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "nar-"))
	assert.Len(t, got, len("nar-")+21)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := MustGenerate("nar")
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
