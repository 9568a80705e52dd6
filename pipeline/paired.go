package pipeline

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pollux/correct"
	"github.com/grailbio/pollux/encoding/fastq"
	"github.com/grailbio/pollux/kmer"
)

// CorrectPaired corrects two mate files in lock step, matching reads
// by ordinal. Matched pairs are routed together: both to corrected,
// or (filtering enabled and both tagged Bad) both to low-coverage. A
// read whose ordinal has no mate in the other file is corrected
// independently and always written to a shared "extra.corrected" file
// regardless of its own tag, since there is no partner to make a
// joint routing decision with.
func CorrectPaired(ctx context.Context, path1, path2 string, table *kmer.Table, threshold uint32, opts Options) (correct.Statistics, error) {
	var total correct.Statistics

	r1, err := fastq.NewReader(ctx, path1)
	if err != nil {
		return total, err
	}
	defer func() { _ = r1.Close(ctx) }()

	r2, err := fastq.NewReader(ctx, path2)
	if err != nil {
		return total, err
	}
	defer func() { _ = r2.Close(ctx) }()

	correctedW1, lowW1, close1, err := openOutputs(ctx, path1, opts)
	if err != nil {
		return total, err
	}
	defer close1()

	correctedW2, lowW2, close2, err := openOutputs(ctx, path2, opts)
	if err != nil {
		return total, err
	}
	defer close2()

	extraW, err := fastq.NewWriter(ctx, opts.OutputDir+"/extra.corrected")
	if err != nil {
		return total, err
	}
	defer func() { _ = extraW.Close(ctx) }()

	rec1, ok1 := nextRecord(r1)
	rec2, ok2 := nextRecord(r2)

	for ok1 || ok2 {
		switch {
		case ok1 && ok2 && rec1.Ordinal == rec2.Ordinal:
			s1 := correct.CorrectRead(rec1, table, threshold, opts.K, opts.Config)
			s2 := correct.CorrectRead(rec2, table, threshold, opts.K, opts.Config)
			total.Add(s1)
			total.Add(s2)

			bothBad := opts.Config.Filtering && rec1.Type == fastq.Bad && rec2.Type == fastq.Bad
			if bothBad {
				if err := lowW1.Write(rec1); err != nil {
					return total, err
				}
				if err := lowW2.Write(rec2); err != nil {
					return total, err
				}
			} else {
				if err := correctedW1.Write(rec1); err != nil {
					return total, err
				}
				if err := correctedW2.Write(rec2); err != nil {
					return total, err
				}
			}
			rec1, ok1 = nextRecord(r1)
			rec2, ok2 = nextRecord(r2)

		case ok1 && (!ok2 || rec1.Ordinal < rec2.Ordinal):
			total.Add(correct.CorrectRead(rec1, table, threshold, opts.K, opts.Config))
			if err := extraW.Write(rec1); err != nil {
				return total, err
			}
			rec1, ok1 = nextRecord(r1)

		default:
			total.Add(correct.CorrectRead(rec2, table, threshold, opts.K, opts.Config))
			if err := extraW.Write(rec2); err != nil {
				return total, err
			}
			rec2, ok2 = nextRecord(r2)
		}
	}

	if err := r1.Err(); err != nil {
		return total, errors.E(err, "correct", path1)
	}
	if err := r2.Err(); err != nil {
		return total, errors.E(err, "correct", path2)
	}
	return total, nil
}

func nextRecord(r *fastq.Reader) (*fastq.Record, bool) {
	rec := &fastq.Record{}
	if !r.Scan(rec) {
		return nil, false
	}
	return rec, true
}
