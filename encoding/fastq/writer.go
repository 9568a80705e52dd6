package fastq

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

var newline = []byte{'\n'}

// Writer is a FASTQ file writer backed by a file.File.
type Writer struct {
	f   file.File
	w   io.Writer
	err error
}

// NewWriter creates path and returns a Writer over it.
func NewWriter(ctx context.Context, path string) (*Writer, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	return &Writer{f: f, w: f.Writer(ctx)}, nil
}

// Write emits rec in four-line FASTQ format. Headers are passed
// through unchanged; the sequence and quality reflect whatever
// edits correction applied.
func (w *Writer) Write(rec *Record) error {
	w.writeln(rec.Header)
	w.writeln(rec.Sequence.String())
	w.writeln(rec.Plus)
	w.writeln(rec.Sequence.Quality())
	return w.err
}

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}

// Close closes the underlying file, surfacing any write error that
// hasn't already been returned by Write.
func (w *Writer) Close(ctx context.Context) error {
	if err := w.f.Close(ctx); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}
