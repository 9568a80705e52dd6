// Package kmer implements the k-mer abundance table: a chained hash
// table keyed by packed k-mer value, its build/preprocess lifecycle,
// and the per-position count array and jump predicate used to locate
// correction candidates.
package kmer

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/pollux/seq"
)

// primes is a precomputed, roughly-doubling sequence of table sizes.
// Grounded on the reference implementation's own prime table; this
// repository's workloads (a single FASTQ run's worth of distinct
// k-mers) never need the very large tail the original carries, so the
// sequence is truncated at a size comfortably past typical genome
// coverage depth.
var primes = []uint64{
	193, 389, 769, 1543, 3079, 6151, 12289, 24593, 49157, 98317,
	196613, 393241, 786433, 1572869, 3145739, 6291469, 12582917,
	25165843, 50331653, 100663319, 201326611, 402653189, 805306457,
	1610612741,
}

// MaxKMerCount is the sentinel threshold used when the low-coverage
// histogram never turns over (see Preprocess). No real count exceeds
// it, so ClassifyScratch types every read LowCoverage under it;
// IsJump takes no threshold and is unaffected.
const MaxKMerCount = ^uint32(0)

// Hasher maps a packed k-mer to a table index. The default is the
// identity function, matching the reference implementation's
// observation that a packed k-mer is already well distributed; see
// FarmHash and HighwayHash for stronger mixers.
type Hasher func(uint64) uint64

// Identity is the default Hasher.
func Identity(km uint64) uint64 { return km }

type entry struct {
	key   uint64
	count uint32
	next  *entry
}

// Table is a chained hash table mapping packed k-mers to abundance
// counts. The zero value is not usable; construct with New.
type Table struct {
	buckets    []*entry
	primeIndex int
	count      int
	hash       Hasher
}

// New creates an empty table. A nil hash uses Identity.
func New(hash Hasher) *Table {
	if hash == nil {
		hash = Identity
	}
	return &Table{
		buckets: make([]*entry, primes[0]),
		hash:    hash,
	}
}

func (t *Table) bucketFor(km uint64, nbuckets int) int {
	return int(t.hash(km) % uint64(nbuckets))
}

// Add increments km's count, creating an entry with count 1 if it is
// not already present. This is the raw, unchecked path used only
// during table build; it never treats a missing key specially beyond
// inserting it.
func (t *Table) Add(km uint64) {
	if t.count+1 > len(t.buckets)/2 {
		t.grow()
	}
	idx := t.bucketFor(km, len(t.buckets))
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == km {
			e.count++
			return
		}
	}
	t.buckets[idx] = &entry{key: km, count: 1, next: t.buckets[idx]}
	t.count++
}

// Lookup returns the raw stored count for km, or 0 if absent.
func (t *Table) Lookup(km uint64) uint32 {
	idx := t.bucketFor(km, len(t.buckets))
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == km {
			return e.count
		}
	}
	return 0
}

// LookupOrUnique is the wrapper the correction and counting paths
// use: a missing key is treated as count 1, collapsing "pruned
// singleton" and "never seen" into a single downstream meaning of "as
// rare as possible".
func (t *Table) LookupOrUnique(km uint64) uint32 {
	if c := t.Lookup(km); c != 0 {
		return c
	}
	return 1
}

func (t *Table) remove(km uint64) {
	idx := t.bucketFor(km, len(t.buckets))
	var prev *entry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == km {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.count--
			return
		}
		prev = e
	}
}

func (t *Table) grow() {
	defer t.recoverResize()
	if t.primeIndex+1 >= len(primes) {
		return
	}
	t.resizeTo(t.primeIndex + 1)
}

func (t *Table) shrink() {
	defer t.recoverResize()
	for t.primeIndex > 0 && t.count <= int(primes[t.primeIndex])/8 {
		t.resizeTo(t.primeIndex - 1)
	}
}

// recoverResize mirrors the reference implementation's allocation-
// failure handling: on an allocation panic during resize, log a
// critical message and continue with the table as it was before the
// resize attempt (resizeTo only swaps t.buckets/t.primeIndex after
// the new slice is fully built, so an incomplete resize never
// corrupts the live table).
func (t *Table) recoverResize() {
	if r := recover(); r != nil {
		log.Error.Printf("CRITICAL: failed to allocate hash table: %v", r)
	}
}

func (t *Table) resizeTo(newIndex int) {
	newBuckets := make([]*entry, primes[newIndex])
	for _, head := range t.buckets {
		for e := head; e != nil; {
			next := e.next
			idx := t.bucketFor(e.key, len(newBuckets))
			e.next = newBuckets[idx]
			newBuckets[idx] = e
			e = next
		}
	}
	t.buckets = newBuckets
	t.primeIndex = newIndex
}

// PreprocessResult summarizes a Preprocess call: the count histogram
// (index c holds the number of distinct k-mers with abundance
// exactly c, capped at 1024) and the inferred low-coverage threshold.
type PreprocessResult struct {
	Histogram [1025]uint32
	Threshold uint32
}

// Preprocess tallies the count histogram, removes every entry with
// count exactly 1 (singletons deemed unreliable), resizes the table
// down if warranted, and infers the low-coverage threshold as the
// first local minimum of the histogram starting at index 1: the
// smallest c at which the descending run beginning at 1 turns back
// upward. If the histogram never turns (monotonically decreasing all
// the way to the cap), the threshold falls back to MaxKMerCount.
func (t *Table) Preprocess() PreprocessResult {
	var result PreprocessResult
	var singles []uint64
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			idx := e.count
			if idx > 1024 {
				idx = 1024
			}
			result.Histogram[idx]++
			if e.count == 1 {
				singles = append(singles, e.key)
			}
		}
	}
	for _, km := range singles {
		t.remove(km)
	}
	t.shrink()

	result.Threshold = inferThreshold(result.Histogram)
	return result
}

func inferThreshold(hist [1025]uint32) uint32 {
	c := 1
	for c < 1024 && hist[c] > hist[c+1] {
		c++
	}
	if c >= 1024 {
		return MaxKMerCount
	}
	return uint32(c)
}

// BuildFromSequence adds every k-mer of s, forward and reverse
// complemented, to the table.
func (t *Table) BuildFromSequence(s seq.Sequence, k int) {
	addAll(t, s, k)
	addAll(t, s.ReverseComplement(), k)
}

func addAll(t *Table, s seq.Sequence, k int) {
	n := s.Length() - k + 1
	for i := 0; i < n; i++ {
		t.Add(s.Kmer(i, k))
	}
}
