// pollux corrects sequencing errors in FASTQ reads using a k-mer
// abundance table built from the same input, per the scheme described
// in github.com/grailbio/pollux/SPEC_FULL.md.
package main

import (
	"flag"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/pollux/correct"
	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/pipeline"
)

var (
	outputDir      = flag.String("o", ".", "directory to write corrected/low-coverage output files to")
	paired         = flag.Bool("p", false, "treat input files as mate pairs, given in r1a r1b r2a r2b ... order")
	kFlag          = flag.Int("k", 31, "k-mer size")
	batchSize      = flag.Int("b", pipeline.DefaultBatchSize, "number of reads to hold in memory per batch")
	substitutions  = flag.String("s", "true", "attempt substitution corrections (true/false)")
	insertions     = flag.String("n", "true", "attempt insertion-error corrections (true/false)")
	deletions      = flag.String("d", "true", "attempt deletion-error corrections (true/false)")
	homopolymers   = flag.String("h", "true", "attempt homopolymer-run corrections (true/false)")
	filtering      = flag.String("f", "true", "route reads that remain Bad after correction to a separate .low file")
	fastk          = flag.Bool("fastk", false, "convert input to the FASTK six-line-per-record format instead of correcting")
	hashFlag       = flag.String("hash", "identity", "k-mer hash function: identity, farm, or highway")
	histogramSVG   = flag.String("histogram-svg", "", "write an SVG homopolymer-correction histogram to this path")
	verbose        = flag.Bool("v", false, "prefix log lines with date, time, and source file")
)

func parseBool(name, value string) bool {
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		log.Fatalf("invalid value %q for -%s, expected true or false", value, name)
		return false
	}
}

// splitInputFiles pulls the "-i file1 file2 ... -nextflag" run out of
// args, since Go's flag package cannot express a flag that consumes a
// variable number of following non-flag arguments. This mirrors the
// reference implementation's own manual argv scan for -i.
func splitInputFiles(args []string) (files []string, rest []string) {
	for i := 0; i < len(args); i++ {
		if args[i] != "-i" {
			rest = append(rest, args[i])
			continue
		}
		i++
		for i < len(args) && len(args[i]) > 0 && args[i][0] != '-' {
			files = append(files, args[i])
			i++
		}
		i--
	}
	return files, rest
}

func selectHasher(name string) kmer.Hasher {
	switch name {
	case "identity":
		return kmer.Identity
	case "farm":
		return kmer.FarmHash
	case "highway":
		return kmer.HighwayHash
	default:
		log.Fatalf("invalid value %q for -hash, expected identity, farm, or highway", name)
		return nil
	}
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	files, rest := splitInputFiles(os.Args[1:])
	if err := flag.CommandLine.Parse(rest); err != nil {
		log.Fatalf("%v", err)
	}
	if len(files) == 0 {
		flag.PrintDefaults()
		log.Fatalf("usage: pollux -i file1 [file2 ...] [flags]")
	}
	if *paired && len(files)%2 != 0 {
		log.Fatalf("-p requires an even number of input files (mate pairs)")
	}
	if *kFlag < 4 || *kFlag > 31 {
		log.Fatalf("-k must be in [4,31], got %d", *kFlag)
	}
	if *verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	cfg := correct.Config{
		Substitutions: parseBool("s", *substitutions),
		Insertions:    parseBool("n", *insertions),
		Deletions:     parseBool("d", *deletions),
		Homopolymers:  parseBool("h", *homopolymers),
		Filtering:     parseBool("f", *filtering),
	}

	opts := pipeline.Options{
		K:                *kFlag,
		BatchSize:        *batchSize,
		Hasher:           selectHasher(*hashFlag),
		Config:           cfg,
		OutputDir:        *outputDir,
		Paired:           *paired,
		HistogramSVGPath: *histogramSVG,
	}

	ctx := vcontext.Background()
	var err error
	if *fastk {
		err = pipeline.ConvertToFASTK(ctx, files, opts)
	} else {
		err = pipeline.Run(ctx, files, opts)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}
