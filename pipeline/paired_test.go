package pipeline

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/pollux/correct"
	"github.com/grailbio/pollux/kmer"
	"github.com/grailbio/pollux/seq"
	"github.com/stretchr/testify/require"
)

func writeFastq(t *testing.T, path string, records [][2]string) {
	var b strings.Builder
	for i, r := range records {
		b.WriteString("@r" + strconv.Itoa(i) + "\n")
		b.WriteString(r[0] + "\n+\n")
		b.WriteString(r[1] + "\n")
	}
	require.NoError(t, ioutil.WriteFile(path, []byte(b.String()), 0600))
}

func TestCorrectPairedOrphanGoesToExtra(t *testing.T) {
	dir, err := ioutil.TempDir("", "pipeline-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	const ref = "ACGTACGTACGTACGTACGTA"

	// r1 has two records, r2 has only the first: the second is an
	// orphan that should land in extra.corrected.
	path1 := filepath.Join(dir, "r1.fastq")
	path2 := filepath.Join(dir, "r2.fastq")
	writeFastq(t, path1, [][2]string{
		{ref, strings.Repeat("I", len(ref))},
		{ref, strings.Repeat("I", len(ref))},
	})
	writeFastq(t, path2, [][2]string{
		{ref, strings.Repeat("I", len(ref))},
	})

	table := kmer.New(nil)
	table.BuildFromSequence(seq.New(ref, strings.Repeat("I", len(ref))), 4)

	ctx := vcontext.Background()
	opts := Options{K: 4, OutputDir: dir, Config: correct.DefaultConfig()}

	_, err = CorrectPaired(ctx, path1, path2, table, 0, opts)
	require.NoError(t, err)

	extra, err := ioutil.ReadFile(filepath.Join(dir, "extra.corrected"))
	require.NoError(t, err)
	require.Contains(t, string(extra), "@r1")
}
