package pipeline

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/pollux/correct"
	"github.com/grailbio/pollux/encoding/fastq"
	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/stats"
)

// Run builds the k-mer table from files, then corrects each file (or
// mate pair, if opts.Paired) in turn, logging a summary at the end.
// When paired, files must be given in mate-pair order:
// r1a, r1b, r2a, r2b, ...
func Run(ctx context.Context, files []string, opts Options) error {
	table, preprocessed, err := BuildTable(ctx, files, opts)
	if err != nil {
		return err
	}

	var total correct.Statistics
	if opts.Paired {
		for i := 0; i+1 < len(files); i += 2 {
			s, err := CorrectPaired(ctx, files[i], files[i+1], table, preprocessed.Threshold, opts)
			if err != nil {
				return err
			}
			total.Add(s)
		}
	} else {
		for _, path := range files {
			s, err := CorrectFile(ctx, path, table, preprocessed.Threshold, opts)
			if err != nil {
				return err
			}
			total.Add(s)
		}
	}

	printSummary(total)

	if opts.HistogramSVGPath != "" {
		svg, err := stats.RenderHomopolymerHistogram(total.HomopolymerHistogram)
		if err != nil {
			return err
		}
		if err := stats.WriteFile(ctx, opts.HistogramSVGPath, svg); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(s correct.Statistics) {
	log.Printf("corrections: %d substitutions, %d insertions, %d deletions, %d homopolymer resizes",
		s.Substitutions, s.Insertions, s.Deletions, s.Homopolymers)
}

// ConvertToFASTK rewrites each file in the alternate six-line-per-
// record FASTK format instead of running correction, reusing the same
// k-mer table build step.
func ConvertToFASTK(ctx context.Context, files []string, opts Options) error {
	table, _, err := BuildTable(ctx, files, opts)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := convertFileToFASTK(ctx, path, table, opts); err != nil {
			return err
		}
	}
	return nil
}

func convertFileToFASTK(ctx context.Context, path string, table *kmer.Table, opts Options) error {
	r, err := fastq.NewReader(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close(ctx) }()

	base := outputBasename(path)
	w, err := fastq.NewWriter(ctx, opts.OutputDir+"/"+base+".fastk")
	if err != nil {
		return err
	}
	fk := fastq.NewFASTKWriter(w, opts.K, table)
	defer func() { _ = fk.Close(ctx) }()

	for {
		batch, err := r.ReadBatch(opts.batchSize())
		if err != nil {
			return err
		}
		if batch == nil {
			return nil
		}
		for _, rec := range batch {
			if err := fk.Write(rec); err != nil {
				return err
			}
		}
	}
}
