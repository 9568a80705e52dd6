package fastq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimAndFixupTrimsLeadingAndTrailingN(t *testing.T) {
	bases, qual := trimAndFixup("NNACGTNN", "!!IIIIII")
	assert.Equal(t, "ACGT", bases)
	assert.Equal(t, "IIII", qual)
}

func TestTrimAndFixupReplacesInternalN(t *testing.T) {
	bases, qual := trimAndFixup("ACNNGT", "IIIIII")
	assert.Equal(t, 6, len(bases))
	assert.Equal(t, "IIIIII", qual)
	for _, c := range bases {
		assert.Contains(t, "ACGT", string(c))
	}
	// Rotation is deterministic: first N -> A, second N -> C.
	assert.Equal(t, "ACACGT", bases)
}

func TestTrimAndFixupUppercasesAndTrimsWhitespace(t *testing.T) {
	bases, qual := trimAndFixup("  acgt  ", "  IIII  ")
	assert.Equal(t, "ACGT", bases)
	assert.Equal(t, "IIII", qual)
}

func TestReadTypeString(t *testing.T) {
	assert.Equal(t, "corrected", Corrected.String())
	assert.Equal(t, "bad", Bad.String())
	assert.Equal(t, "unknown", Unknown.String())
}
