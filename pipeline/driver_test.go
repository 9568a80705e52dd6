package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputBasenameStripsKnownSuffixes(t *testing.T) {
	cases := map[string]string{
		"/data/sample_R1.fastq.gz": "sample_R1",
		"/data/sample_R1.fq.gz":    "sample_R1",
		"sample.fastq":             "sample",
		"sample.fq":                "sample",
		"/data/sample.unknown":     "sample.unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, outputBasename(in))
	}
}

func TestBatchSizeDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, Options{}.batchSize())
	assert.Equal(t, 10, Options{BatchSize: 10}.batchSize())
}
