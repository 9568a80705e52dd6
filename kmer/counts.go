package kmer

import "github.com/grailbio/pollux/seq"

// Counts returns the per-position k-mer abundance array for s: for a
// sequence of length L, counts[i] is the LookupOrUnique value of the
// k-mer starting at position i, for i in [0, L-k].
func Counts(s seq.Sequence, t *Table, k int) []uint32 {
	n := s.Length() - k + 1
	if n <= 0 {
		return nil
	}
	counts := make([]uint32, n)
	for i := 0; i < n; i++ {
		counts[i] = t.LookupOrUnique(s.Kmer(i, k))
	}
	return counts
}

// RawCounts is Counts without the missing-means-1 wrapper: a missing
// k-mer reads as 0. Used by FASTK output and by the count==1-fraction
// based high-quality predicate, both of which read an absent (or
// pruned) k-mer as 0 rather than the wrapper's 1.
func RawCounts(s seq.Sequence, t *Table, k int) []uint32 {
	n := s.Length() - k + 1
	if n <= 0 {
		return nil
	}
	counts := make([]uint32, n)
	for i := 0; i < n; i++ {
		counts[i] = t.Lookup(s.Kmer(i, k))
	}
	return counts
}

// IsJump reports whether adjacent counts a, b differ enough to be
// treated as an error discontinuity: the difference must exceed both
// 20% of the larger value and an absolute floor of 3. Symmetric in a
// and b.
func IsJump(a, b uint32) bool {
	high, low := a, b
	if low > high {
		high, low = low, high
	}
	diff := high - low
	return float64(diff) > 0.2*float64(high) && diff > 3
}

// IsHighToLow reports whether a (the count at the lower index) is the
// larger of the pair, per the reference definition: ties go to
// low-to-high.
func IsHighToLow(a, b uint32) bool { return a > b }

// DiscontinuityPosition maps a k-mer index i and its direction to the
// implicated sequence position: the rightmost base of the high k-mer
// when high-to-low, else the leftmost base of the low k-mer.
func DiscontinuityPosition(i int, highToLow bool, k int) int {
	if highToLow {
		return i + k
	}
	return i
}

// ReadClass is the jump-based High-Quality/Low-Coverage
// classification of a scratch sequence, distinct from the
// count==1-fraction based predicate used to tag a committed read
// Corrected or Bad.
type ReadClass int

const (
	ClassUnknown ReadClass = iota
	ClassHighQuality
	ClassLowCoverage
)

func (c ReadClass) String() string {
	switch c {
	case ClassHighQuality:
		return "high-quality"
	case ClassLowCoverage:
		return "low-coverage"
	default:
		return "unknown"
	}
}

// ClassifyScratch types a read as HighQuality when every count
// exceeds threshold and no adjacent pair is a jump, else
// LowCoverage.
func ClassifyScratch(counts []uint32, threshold uint32) ReadClass {
	for i, c := range counts {
		if c <= threshold {
			return ClassLowCoverage
		}
		if i+1 < len(counts) && IsJump(c, counts[i+1]) {
			return ClassLowCoverage
		}
	}
	return ClassHighQuality
}
