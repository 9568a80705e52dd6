// Package fastq reads and writes FASTQ records, trimming and
// normalizing sequences on the way in, and supports the alternate
// FASTK six-line-per-record output.
package fastq

import (
	"strings"

	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/seq"
)

// ReadType is the terminal classification assigned to a record after
// correction. The state machine only ever moves forward: CorrectRead
// moves Type from Unknown to Corrected or Bad. It does not assign
// HighQuality or LowCoverage; the jump-based typing is kept in
// Record.DiagnosticClass.
type ReadType int

const (
	Unknown ReadType = iota
	HighQuality
	LowCoverage
	Corrected
	Bad
)

func (t ReadType) String() string {
	switch t {
	case HighQuality:
		return "high-quality"
	case LowCoverage:
		return "low-coverage"
	case Corrected:
		return "corrected"
	case Bad:
		return "bad"
	default:
		return "unknown"
	}
}

// Record is one FASTQ entry: the two header lines verbatim, the
// packed sequence and quality, a 1-based file-order ordinal, and the
// post-correction classification.
type Record struct {
	Header string // line 1, including leading '@'
	Plus   string // line 3, including leading '+'

	Sequence seq.Sequence
	Ordinal  int
	Type     ReadType

	// DiagnosticClass records the jump-based High-Quality/Low-Coverage
	// typing computed when a read had no discrepancies from the first
	// iteration of correction; a read no longer than k is set to
	// LowCoverage. It is reporting-only: output routing
	// uses Type's Corrected/Bad value exclusively.
	DiagnosticClass kmer.ReadClass
}

const linesPerRecord = 4

var nReplacement = [4]byte{'A', 'C', 'G', 'T'}

// trimAndFixup trims leading/trailing whitespace and leading/trailing
// N runs (dropping the matching quality bytes), then replaces any
// remaining internal N with a deterministic rotation through A/C/G/T
// so every base encodes to a definite 2-bit code.
func trimAndFixup(bases, qual string) (string, string) {
	bases = strings.TrimSpace(bases)
	qual = strings.TrimSpace(qual)

	start, end := 0, len(bases)
	for start < end && isN(bases[start]) {
		start++
	}
	for end > start && isN(bases[end-1]) {
		end--
	}
	bases = bases[start:end]
	if start <= end && end <= len(qual) {
		qual = qual[start:end]
	}

	b := []byte(strings.ToUpper(bases))
	rotation := 0
	for i, c := range b {
		if c == 'N' {
			b[i] = nReplacement[rotation%len(nReplacement)]
			rotation++
		}
	}
	return string(b), qual
}

func isN(c byte) bool { return c == 'N' || c == 'n' }
