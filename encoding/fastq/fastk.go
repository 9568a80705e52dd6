package fastq

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/pollux/kmer"
)

// FASTKWriter emits the alternate FASTK format: the four usual FASTQ
// lines followed by a line of space-separated per-position k-mer
// counts (raw table lookup, including 0 for an absent k-mer) and a
// blank line. A read shorter than k gets a single "0" line in place
// of the counts.
type FASTKWriter struct {
	w     *Writer
	k     int
	table *kmer.Table
}

// NewFASTKWriter wraps w to also emit the k-mer-counts line for each
// record written.
func NewFASTKWriter(w *Writer, k int, table *kmer.Table) *FASTKWriter {
	return &FASTKWriter{w: w, k: k, table: table}
}

// Write emits rec as a six-line FASTK record.
func (fw *FASTKWriter) Write(rec *Record) error {
	if err := fw.w.Write(rec); err != nil {
		return err
	}
	line := "0"
	if rec.Sequence.Length() >= fw.k {
		counts := kmer.RawCounts(rec.Sequence, fw.table, fw.k)
		parts := make([]string, len(counts))
		for i, c := range counts {
			parts[i] = strconv.FormatUint(uint64(c), 10)
		}
		line = strings.Join(parts, " ")
	}
	_, err := fmt.Fprintf(fw.w.w, "%s\n\n", line)
	if err != nil {
		fw.w.err = err
	}
	return err
}

// Close closes the underlying writer.
func (fw *FASTKWriter) Close(ctx context.Context) error {
	return fw.w.Close(ctx)
}
