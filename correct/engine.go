package correct

import (
	"github.com/grailbio/pollux/encoding/fastq"
	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/seq"
)

// editKind tags which family of edit a logEntry or attemptCorrection
// result represents.
type editKind byte

const (
	editSubstitution editKind = 'S'
	editInsertionFix editKind = 'I' // an inserted base was deleted
	editDeletionFix  editKind = 'D' // a deleted base was re-inserted
	editHomopolymer  editKind = 'H'
)

// logEntry records one committed edit on a scratch sequence, kept
// only for diagnostic purposes; delta is the homopolymer length
// change for editHomopolymer, else 0.
type logEntry struct {
	kind  editKind
	delta int
}

// scratchSequence is the mutable working copy CorrectRead edits in
// place; it is discarded (never committed to rec.Sequence) if the
// read accumulates finalCommitLimit or more corrections.
type scratchSequence struct {
	seq            seq.Sequence
	log            []logEntry
	maxCorrections int
}

// budget bounds how many edits a single read may accumulate: at least
// 30, or a fifth of its length if that's larger.
func budget(length int) int {
	b := length / 5
	if b < 30 {
		b = 30
	}
	return b
}

// finalCommitLimit is the fixed threshold the final commit-or-revert
// decision compares against, distinct from the per-read (possibly
// larger) loop-abort budget: a read that accumulates 30 or more
// corrections is always discarded, however large its own budget was.
const finalCommitLimit = 30

// CorrectRead walks rec's k-mer count discontinuities, attempts to
// resolve each with the edit kinds cfg enables, and tags rec.Type
// Corrected or Bad. A read no longer than k is tagged Bad (never
// Corrected) since no k-mer coverage exists to evaluate it.
func CorrectRead(rec *fastq.Record, table *kmer.Table, threshold uint32, k int, cfg Config) Statistics {
	var stats Statistics

	length := rec.Sequence.Length()
	if length <= k {
		rec.Type = fastq.Bad
		rec.DiagnosticClass = kmer.ClassLowCoverage
		return stats
	}

	sc := &scratchSequence{seq: rec.Sequence.Clone(), maxCorrections: budget(length)}

	counts := kmer.Counts(sc.seq, table, k)
	discrepancies := computeDiscrepancies(counts)
	_, _, foundAny := selectHighest(discrepancies)

	numCorrections := 0
	for {
		i, _, ok := selectHighest(discrepancies)
		if !ok {
			break
		}
		highToLow := kmer.IsHighToLow(counts[i], counts[i+1])
		kind, delta, applied := attemptCorrection(sc, table, k, i, highToLow, cfg)
		if !applied {
			discrepancies[i] = -1
			continue
		}
		applyStats(&stats, kind, delta)
		numCorrections++
		if numCorrections >= sc.maxCorrections {
			break
		}

		counts = kmer.Counts(sc.seq, table, k)
		discrepancies = computeDiscrepancies(counts)
	}

	switch {
	case !foundAny:
		rec.DiagnosticClass = kmer.ClassifyScratch(counts, threshold)
		if IsHighQuality(sc.seq, table, k) {
			rec.Type = fastq.Corrected
		} else {
			rec.Type = fastq.Bad
		}
	case numCorrections < finalCommitLimit:
		rec.Sequence = sc.seq
		if IsHighQuality(rec.Sequence, table, k) {
			rec.Type = fastq.Corrected
		} else {
			rec.Type = fastq.Bad
		}
	default:
		rec.Type = fastq.Bad
	}

	return stats
}

// computeDiscrepancies derives the adjacent-pair discrepancy score
// array from counts: one entry per adjacent pair, positive (the jump
// magnitude) where IsJump holds, else -1 (never a correction
// candidate).
func computeDiscrepancies(counts []uint32) []int {
	if len(counts) < 2 {
		return nil
	}
	disc := make([]int, len(counts)-1)
	for i := range disc {
		a, b := counts[i], counts[i+1]
		if kmer.IsJump(a, b) {
			high, low := a, b
			if low > high {
				high, low = low, high
			}
			disc[i] = int(high - low)
		} else {
			disc[i] = -1
		}
	}
	return disc
}

// selectHighest returns the index of the largest strictly-positive
// discrepancy, ties broken toward the lowest index, and false if none
// is positive.
func selectHighest(discrepancies []int) (int, int, bool) {
	best := -1
	bestScore := 0
	for i, d := range discrepancies {
		if d > bestScore {
			bestScore = d
			best = i
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return best, bestScore, true
}

// attemptCorrection tries every edit cfg enables at the discontinuity
// implicated by count index i, keeping the one whose resulting
// discontinuity-local count run scores highest. A winning edit is
// applied permanently to sc before returning; all others are left
// reverted.
func attemptCorrection(sc *scratchSequence, table *kmer.Table, k, i int, highToLow bool, cfg Config) (editKind, int, bool) {
	total := sc.seq.Length()
	if i <= 0 || i >= (total-k)-1 {
		return 0, 0, false
	}
	pos := kmer.DiscontinuityPosition(i, highToLow, k)

	evaluate := func() int {
		return scanFromDiscontinuity(kmer.Counts(sc.seq, table, k), i, highToLow)
	}

	type candidate struct {
		kind  editKind
		base  int
		score int
	}
	var best candidate

	if cfg.Substitutions {
		original := sc.seq.GetBase(pos)
		originalQ := sc.seq.QualityAt(pos)
		for base := 0; base < 4; base++ {
			if base == original {
				continue
			}
			sc.seq.Substitute(pos, base, averageQuality(sc.seq, pos))
			if score := evaluate(); score > best.score {
				best = candidate{editSubstitution, base, score}
			}
			sc.seq.Substitute(pos, original, originalQ)
		}
	}

	if cfg.Insertions {
		removedBase := sc.seq.GetBase(pos)
		removedQ := sc.seq.QualityAt(pos)
		sc.seq.Delete(pos)
		if score := evaluate(); score > best.score {
			best = candidate{editInsertionFix, -1, score}
		}
		sc.seq.Insert(pos, removedBase, removedQ)
	}

	if cfg.Deletions {
		for _, left := range []bool{true, false} {
			insertAt := pos
			if !left {
				insertAt = pos + 1
			}
			for base := 0; base < 4; base++ {
				sc.seq.Insert(insertAt, base, averageQuality(sc.seq, insertAt))
				score := evaluate() - 1
				if score > best.score {
					kind := editDeletionFix
					encoded := base
					if !left {
						encoded += 4
					}
					best = candidate{kind, encoded, score}
				}
				sc.seq.Delete(insertAt)
			}
		}
	}

	if best.score >= 2 {
		switch best.kind {
		case editSubstitution:
			sc.seq.Substitute(pos, best.base, averageQuality(sc.seq, pos))
		case editInsertionFix:
			sc.seq.Delete(pos)
		case editDeletionFix:
			insertAt := pos
			base := best.base
			if base >= 4 {
				insertAt = pos + 1
				base -= 4
			}
			sc.seq.Insert(insertAt, base, averageQuality(sc.seq, insertAt))
		}
		sc.log = append(sc.log, logEntry{kind: best.kind})
		return best.kind, 0, true
	}

	if cfg.Homopolymers {
		return attemptHomopolymer(sc, table, k, pos, highToLow)
	}

	return 0, 0, false
}

// scanFromDiscontinuity counts consecutive non-jump adjacent pairs
// starting at the discontinuity index, scanning in the direction away
// from the implicated high count: forward for a high-to-low
// discontinuity, backward for low-to-high. The count is the edit's
// score: a successful fix restores a longer run of non-jumping pairs.
func scanFromDiscontinuity(counts []uint32, start int, highToLow bool) int {
	if start < 0 || start >= len(counts) {
		return 0
	}
	n := 0
	if highToLow {
		for j := start; j+1 < len(counts); j++ {
			if kmer.IsJump(counts[j], counts[j+1]) {
				break
			}
			n++
		}
		return n
	}
	for j := start; j-1 >= 0; j-- {
		if kmer.IsJump(counts[j-1], counts[j]) {
			break
		}
		n++
	}
	return n
}

// averageQuality estimates a quality value for a base at pos from its
// still-valid neighbors, falling back to Phred-33 zero if neither
// exists (pos at either sequence end).
func averageQuality(s seq.Sequence, pos int) byte {
	has := func(p int) bool { return p >= 0 && p < s.Length() }
	switch {
	case has(pos-1) && has(pos+1):
		return byte((int(s.QualityAt(pos-1)) + int(s.QualityAt(pos+1))) / 2)
	case has(pos - 1):
		return s.QualityAt(pos - 1)
	case has(pos + 1):
		return s.QualityAt(pos + 1)
	default:
		return 33
	}
}

// attemptHomopolymer tries resizing the homopolymer run at pos to
// every candidate length in [max(run/2,1), 2*run] other than its
// current length, keeping whichever yields the highest average k-mer
// count over the window spanning the run. It is the fallback when no
// single-base edit scores well.
func attemptHomopolymer(sc *scratchSequence, table *kmer.Table, k, pos int, highToLow bool) (editKind, int, bool) {
	leftmost := sc.seq.HomopolymerLeftmost(pos)
	run := sc.seq.HomopolymerLength(leftmost)

	lo := run / 2
	if lo < 1 {
		lo = 1
	}
	hi := 2 * run

	type candidate struct {
		length int
		avg    float64
	}
	var best candidate
	bestSet := false
	fill := averageQuality(sc.seq, leftmost)

	for candLen := lo; candLen <= hi; candLen++ {
		if candLen == run {
			continue
		}
		resizedTotal := sc.seq.Length() - run + candLen
		if candLen >= k || resizedTotal <= k {
			continue
		}
		sc.seq.SetHomopolymerLength(leftmost, candLen, fill)
		avg := averageWindow(sc.seq, table, k, leftmost, highToLow)
		if !bestSet || avg > best.avg {
			best = candidate{candLen, avg}
			bestSet = true
		}
		sc.seq.SetHomopolymerLength(leftmost, run, fill)
	}

	if !bestSet || best.length == run {
		return 0, 0, false
	}

	sc.seq.SetHomopolymerLength(leftmost, best.length, fill)
	delta := best.length - run
	sc.log = append(sc.log, logEntry{kind: editHomopolymer, delta: delta})
	return editHomopolymer, delta, true
}

// averageWindow averages the LookupOrUnique count of every k-mer in a
// two-k-mer-wide window anchored on the homopolymer run at leftmost,
// positioned on whichever side of the run the discontinuity came
// from.
func averageWindow(s seq.Sequence, table *kmer.Table, k, leftmost int, highToLow bool) float64 {
	run := s.HomopolymerLength(leftmost)
	start := leftmost - 2
	if highToLow {
		start = leftmost - k + 1 + run
	}
	if start < 0 {
		start = 0
	}
	end := start + 2*k
	if max := s.Length() - k + 1; end > max {
		end = max
	}
	if end <= start {
		return 0
	}
	var sum float64
	n := 0
	for i := start; i < end; i++ {
		sum += float64(table.LookupOrUnique(s.Kmer(i, k)))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// IsHighQuality reports whether fewer than half of s's raw per-
// position k-mer counts equal exactly 1. Implemented literally to the
// reference definition: since Preprocess prunes every count-1 entry
// from the table before correction runs, a raw lookup never reads
// exactly 1 afterwards (an absent or pruned k-mer reads 0), so post-
// preprocessing this predicate holds for every read with at least one
// k-mer.
func IsHighQuality(s seq.Sequence, table *kmer.Table, k int) bool {
	counts := kmer.RawCounts(s, table, k)
	if len(counts) == 0 {
		return false
	}
	ones := 0
	for _, c := range counts {
		if c == 1 {
			ones++
		}
	}
	return float64(ones) < 0.5*float64(len(counts))
}

func applyStats(stats *Statistics, kind editKind, delta int) {
	switch kind {
	case editSubstitution:
		stats.Substitutions++
	case editInsertionFix:
		stats.Insertions++
	case editDeletionFix:
		stats.Deletions++
	case editHomopolymer:
		stats.recordHomopolymer(delta)
	}
}
