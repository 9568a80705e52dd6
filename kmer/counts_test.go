package kmer

import (
	"testing"

	"github.com/grailbio/pollux/seq"
	"github.com/stretchr/testify/assert"
)

func TestIsJumpSymmetric(t *testing.T) {
	tests := []struct {
		a, b uint32
		want bool
	}{
		{10, 10, false},
		{10, 1, true},
		{10, 9, false},
		{4, 0, true},
		{100, 79, true},
		{100, 90, false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, IsJump(test.a, test.b), "IsJump(%d,%d)", test.a, test.b)
		assert.Equal(t, test.want, IsJump(test.b, test.a), "IsJump(%d,%d) symmetric", test.b, test.a)
	}
}

func TestDiscontinuityPosition(t *testing.T) {
	assert.Equal(t, 8, DiscontinuityPosition(3, true, 5))
	assert.Equal(t, 3, DiscontinuityPosition(3, false, 5))
}

func TestCountsUsesLookupOrUnique(t *testing.T) {
	table := New(nil)
	s := seq.New("ACGTA", "IIIII")
	table.BuildFromSequence(s, 3)
	// ACG occurs in both ACGTA and its reverse complement TACGT, so this
	// bumps its count to 3.
	table.Add(s.Kmer(0, 3))

	counts := Counts(s, table, 3)
	assert.Len(t, counts, 3)
	assert.Equal(t, uint32(3), counts[0])

	raw := RawCounts(s, table, 3)
	assert.Equal(t, counts[0], raw[0])
}

func TestRawCountsZeroForAbsent(t *testing.T) {
	table := New(nil)
	s := seq.New("ACGTA", "IIIII")
	raw := RawCounts(s, table, 3)
	for _, c := range raw {
		assert.Equal(t, uint32(0), c)
	}
	wrapped := Counts(s, table, 3)
	for _, c := range wrapped {
		assert.Equal(t, uint32(1), c)
	}
}

func TestClassifyScratch(t *testing.T) {
	uniform := []uint32{10, 10, 10, 10}
	assert.Equal(t, ClassHighQuality, ClassifyScratch(uniform, 5))

	withJump := []uint32{10, 10, 1, 1}
	assert.Equal(t, ClassLowCoverage, ClassifyScratch(withJump, 0))

	belowThreshold := []uint32{10, 10, 10}
	assert.Equal(t, ClassLowCoverage, ClassifyScratch(belowThreshold, 20))
}
