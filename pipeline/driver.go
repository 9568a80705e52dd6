// Package pipeline drives the end-to-end correction run: building the
// k-mer table from the input files, preprocessing it, then streaming
// each file's reads through correction in batches and routing them to
// the corrected/low-coverage output streams.
package pipeline

import (
	"context"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pollux/correct"
	"github.com/grailbio/pollux/encoding/fastq"
	"github.com/grailbio/pollux/kmer"
)

// DefaultBatchSize is the number of reads the driver holds in memory
// at once, matching the reference implementation's batching.
const DefaultBatchSize = 200000

// Options configures a correction run.
type Options struct {
	K                int
	BatchSize        int
	Hasher           kmer.Hasher
	Config           correct.Config
	OutputDir        string
	Paired           bool
	HistogramSVGPath string
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// BuildTable constructs the k-mer table from every input file,
// preprocessing after each file so the coverage threshold self-adjusts
// as more data arrives.
func BuildTable(ctx context.Context, paths []string, opts Options) (*kmer.Table, kmer.PreprocessResult, error) {
	table := kmer.New(opts.Hasher)
	var result kmer.PreprocessResult
	for _, path := range paths {
		if err := addFileToTable(ctx, path, table, opts); err != nil {
			return nil, kmer.PreprocessResult{}, err
		}
		result = table.Preprocess()
	}
	// Every entry with a count of 2 or more survives singleton pruning.
	distinct := 0
	for c := 2; c < len(result.Histogram); c++ {
		distinct += int(result.Histogram[c])
	}
	log.Debug.Printf("k-mer table built: %d distinct k-mers after preprocessing, threshold=%d", distinct, result.Threshold)
	return table, result, nil
}

func addFileToTable(ctx context.Context, path string, table *kmer.Table, opts Options) error {
	r, err := fastq.NewReader(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close(ctx) }()

	for {
		batch, err := r.ReadBatch(opts.batchSize())
		if err != nil {
			return errors.E(err, "build table", path)
		}
		if batch == nil {
			return nil
		}
		for _, rec := range batch {
			table.BuildFromSequence(rec.Sequence, opts.K)
		}
	}
}

// CorrectFile streams path's reads through correction in batches,
// writing results to the corrected and (if filtering is enabled and
// any reads fail) low-coverage output streams.
func CorrectFile(ctx context.Context, path string, table *kmer.Table, threshold uint32, opts Options) (correct.Statistics, error) {
	var total correct.Statistics

	r, err := fastq.NewReader(ctx, path)
	if err != nil {
		return total, err
	}
	defer func() { _ = r.Close(ctx) }()

	correctedW, lowW, closeOutputs, err := openOutputs(ctx, path, opts)
	if err != nil {
		return total, err
	}
	defer closeOutputs()

	for {
		batch, err := r.ReadBatch(opts.batchSize())
		if err != nil {
			return total, errors.E(err, "correct", path)
		}
		if batch == nil {
			break
		}
		for _, rec := range batch {
			stats := correct.CorrectRead(rec, table, threshold, opts.K, opts.Config)
			total.Add(stats)
			if err := routeRecord(rec, correctedW, lowW, opts); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func routeRecord(rec *fastq.Record, correctedW, lowW *fastq.Writer, opts Options) error {
	if opts.Config.Filtering && rec.Type == fastq.Bad && lowW != nil {
		return lowW.Write(rec)
	}
	return correctedW.Write(rec)
}

func openOutputs(ctx context.Context, path string, opts Options) (correctedW, lowW *fastq.Writer, closeFn func(), err error) {
	base := outputBasename(path)
	correctedPath := opts.OutputDir + "/" + base + ".corrected"
	lowPath := opts.OutputDir + "/" + base + ".low"

	correctedW, err = fastq.NewWriter(ctx, correctedPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if !opts.Config.Filtering {
		return correctedW, nil, func() { _ = correctedW.Close(ctx) }, nil
	}

	lowW, err = fastq.NewWriter(ctx, lowPath)
	if err != nil {
		_ = correctedW.Close(ctx)
		return nil, nil, nil, err
	}
	return correctedW, lowW, func() { _ = correctedW.Close(ctx); _ = lowW.Close(ctx) }, nil
}

// outputBasename strips the recognized FASTQ extensions from path's
// final path element so ".corrected"/".low" compose cleanly.
func outputBasename(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, suffix := range []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}
