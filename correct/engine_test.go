package correct

import (
	"strings"
	"testing"

	"github.com/grailbio/pollux/encoding/fastq"
	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/seq"
	"github.com/stretchr/testify/assert"
)

func TestBudget(t *testing.T) {
	assert.Equal(t, 30, budget(9))
	assert.Equal(t, 30, budget(150))
	assert.Equal(t, 40, budget(200))
}

func TestComputeDiscrepanciesMarksJumps(t *testing.T) {
	counts := []uint32{20, 1, 1, 20}
	disc := computeDiscrepancies(counts)
	assert.Equal(t, []int{19, -1, 19}, disc)
}

func TestSelectHighestTiesToLowestIndex(t *testing.T) {
	i, score, ok := selectHighest([]int{5, 9, 9, -1})
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, 9, score)

	_, _, ok = selectHighest([]int{-1, -1, -1})
	assert.False(t, ok)
}

func TestScanFromDiscontinuityForward(t *testing.T) {
	// 20,20,20,1,20: the first jump going forward is between index 2 and 3.
	counts := []uint32{20, 20, 20, 1, 20}
	assert.Equal(t, 2, scanFromDiscontinuity(counts, 0, true))
}

func TestScanFromDiscontinuityBackward(t *testing.T) {
	// 20,1,1,1,20: the low-to-high jump is pair(3,4); scanning backward
	// from index 3 finds two flat pairs before hitting the jump at
	// pair(0,1).
	counts := []uint32{20, 1, 1, 1, 20}
	assert.Equal(t, 2, scanFromDiscontinuity(counts, 3, false))
}

// buildPeriodicTable populates a table with the four distinct k-mers
// of the period-4 sequence "ACGT" repeating, each at the given count,
// so that any substitution away from that pattern produces a missing
// (count 0 / LookupOrUnique 1) k-mer.
func buildPeriodicTable(count int) *kmer.Table {
	table := kmer.New(nil)
	ref := seq.New("ACGTACGTA", strings.Repeat("I", 9))
	seen := map[uint64]bool{}
	for i := 0; i+4 <= ref.Length(); i++ {
		km := ref.Kmer(i, 4)
		if seen[km] {
			continue
		}
		seen[km] = true
		for j := 0; j < count; j++ {
			table.Add(km)
		}
	}
	return table
}

func TestCorrectReadNoOpOnCleanRead(t *testing.T) {
	table := buildPeriodicTable(20)
	rec := &fastq.Record{Sequence: seq.New("ACGTACGTA", strings.Repeat("I", 9))}

	stats := CorrectRead(rec, table, 0, 4, DefaultConfig())

	assert.Equal(t, fastq.Corrected, rec.Type)
	assert.Equal(t, "ACGTACGTA", rec.Sequence.String())
	assert.Equal(t, 0, stats.Substitutions)
}

func TestCorrectReadFixesSubstitution(t *testing.T) {
	table := buildPeriodicTable(20)
	// base 8 is G instead of A; the discontinuity sits at k-mer index 4,
	// inside the window attemptCorrection accepts (0 < i < L-k-1).
	rec := &fastq.Record{Sequence: seq.New("ACGTACGTGCGTACGTA", strings.Repeat("I", 17))}

	stats := CorrectRead(rec, table, 0, 4, DefaultConfig())

	assert.Equal(t, fastq.Corrected, rec.Type)
	assert.Equal(t, "ACGTACGTACGTACGTA", rec.Sequence.String())
	assert.Equal(t, 1, stats.Substitutions)
}

func TestCorrectReadShortReadIsBad(t *testing.T) {
	table := buildPeriodicTable(20)
	rec := &fastq.Record{Sequence: seq.New("ACGT", "IIII")}

	CorrectRead(rec, table, 0, 4, DefaultConfig())

	assert.Equal(t, fastq.Bad, rec.Type)
	assert.Equal(t, kmer.ClassLowCoverage, rec.DiagnosticClass)
}

func TestIsHighQualityCountsRawSingletons(t *testing.T) {
	table := buildPeriodicTable(20)
	s := seq.New("ACGTACGTA", strings.Repeat("I", 9))
	assert.True(t, IsHighQuality(s, table, 4))

	singletons := buildPeriodicTable(1)
	assert.False(t, IsHighQuality(s, singletons, 4))
}

// runsRef is a k=5 reference with five-base homopolymer runs of each
// base, used to exercise the insertion-fix, deletion-fix, and
// homopolymer-resize correction paths.
const runsRef = "AAAAACCCCCGGGGGTTTTT"

// buildRunsTable builds a table from ref's distinct 5-mers, each at
// the given count.
func buildRunsTable(ref string, count int) *kmer.Table {
	table := kmer.New(nil)
	s := seq.New(ref, strings.Repeat("I", len(ref)))
	for i := 0; i+5 <= s.Length(); i++ {
		km := s.Kmer(i, 5)
		for j := 0; j < count; j++ {
			table.Add(km)
		}
	}
	return table
}

func TestAttemptCorrectionAcceptsInsertionFix(t *testing.T) {
	table := buildRunsTable(runsRef, 10)

	// a stray 'A' inserted at the C/G junction.
	errRead := "AAAAACCCCC" + "A" + "GGGGGTTTTT"
	sc := &scratchSequence{seq: seq.New(errRead, strings.Repeat("I", len(errRead)))}
	cfg := Config{Insertions: true}

	kind, _, applied := attemptCorrection(sc, table, 5, 5, true, cfg)

	assert.True(t, applied)
	assert.Equal(t, editInsertionFix, kind)
	assert.Equal(t, runsRef, sc.seq.String())
}

func TestAttemptCorrectionAcceptsDeletionFix(t *testing.T) {
	// the table reflects a "true" sequence with an extra junction base
	// that the scratch read below is missing.
	trueSeq := "AAAAACCCCC" + "A" + "GGGGGTTTTT"
	table := buildRunsTable(trueSeq, 10)

	sc := &scratchSequence{seq: seq.New(runsRef, strings.Repeat("I", len(runsRef)))}
	cfg := Config{Deletions: true}

	kind, _, applied := attemptCorrection(sc, table, 5, 5, true, cfg)

	assert.True(t, applied)
	assert.Equal(t, editDeletionFix, kind)
	assert.Equal(t, trueSeq, sc.seq.String())
}

func TestAttemptHomopolymerShrinksOverlongRun(t *testing.T) {
	table := buildRunsTable(runsRef, 10)

	// the C run is elongated to 6 bases; the table reflects a true run
	// length of 5, but the fallback only proposes candidates below k,
	// so the best reachable correction shrinks it to 4.
	errRead := "AAAAA" + "CCCCCC" + "GGGGGTTTTT"
	sc := &scratchSequence{seq: seq.New(errRead, strings.Repeat("I", len(errRead)))}

	kind, delta, applied := attemptHomopolymer(sc, table, 5, 5, true)

	assert.True(t, applied)
	assert.Equal(t, editHomopolymer, kind)
	assert.Equal(t, -2, delta)
	assert.Equal(t, "AAAAACCCCGGGGGTTTTT", sc.seq.String())
}
