package fastq

import (
	"bufio"
	"context"
	"io"
	"io/ioutil"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/seq"
	"github.com/klauspost/compress/gzip"
)

// Reader streams FASTQ records from a path, transparently
// decompressing ".gz" input, trimming and normalizing each record's
// sequence, and assigning 1-based ordinals in file order.
type Reader struct {
	path    string
	f       file.File
	rc      io.ReadCloser
	scanner *bufio.Scanner
	next    int
	err     error
}

// NewReader opens path for reading.
func NewReader(ctx context.Context, path string) (*Reader, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	rc, err := maybeGunzip(path, f.Reader(ctx))
	if err != nil {
		_ = f.Close(ctx)
		return nil, errors.E(err, "gunzip", path)
	}
	return &Reader{path: path, f: f, rc: rc, scanner: bufio.NewScanner(rc), next: 1}, nil
}

func maybeGunzip(path string, r io.Reader) (io.ReadCloser, error) {
	if strings.HasSuffix(path, ".gz") {
		return gzip.NewReader(r)
	}
	return ioutil.NopCloser(r), nil
}

// Scan reads the next 4-line record into rec, trims and normalizes
// its sequence, and assigns it the next ordinal. It returns false at
// clean end of file or on error; check Err to distinguish the two.
func (r *Reader) Scan(rec *Record) bool {
	if r.err != nil {
		return false
	}
	var lines [linesPerRecord]string
	for i := 0; i < linesPerRecord; i++ {
		if !r.scanner.Scan() {
			if i == 0 && r.scanner.Err() == nil {
				return false // clean EOF between records
			}
			if err := r.scanner.Err(); err != nil {
				r.err = errors.E(err, "read", r.path)
			} else {
				r.err = errors.E("truncated FASTQ record", r.path)
			}
			return false
		}
		lines[i] = r.scanner.Text()
	}

	bases, qual := trimAndFixup(lines[1], lines[3])
	rec.Header = lines[0]
	rec.Plus = lines[2]
	rec.Sequence = seq.New(bases, qual)
	rec.Ordinal = r.next
	rec.Type = Unknown
	rec.DiagnosticClass = kmer.ClassUnknown
	r.next++
	return true
}

// Err returns the error that stopped Scan, or nil at clean EOF.
func (r *Reader) Err() error { return r.err }

// Close releases the underlying file and decompressor.
func (r *Reader) Close(ctx context.Context) error {
	var errp errors.Once
	if err := r.rc.Close(); err != nil {
		errp.Set(errors.E(err, "close", r.path))
	}
	if err := r.f.Close(ctx); err != nil {
		errp.Set(errors.E(err, "close", r.path))
	}
	return errp.Err()
}

// ReadBatch loads up to n records, the unit the pipeline driver uses
// to bound how many reads are held in memory at once. It returns a
// nil slice (and nil error) at clean end of file.
func (r *Reader) ReadBatch(n int) ([]*Record, error) {
	batch := make([]*Record, 0, n)
	for i := 0; i < n; i++ {
		rec := &Record{}
		if !r.Scan(rec) {
			break
		}
		batch = append(batch, rec)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}
	return batch, nil
}
