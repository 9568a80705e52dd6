package correct

// Statistics tallies the corrections applied to a single read.
// CorrectRead returns one of these per read; the pipeline driver sums
// them across a file in place of the reference implementation's
// process-global accumulators.
type Statistics struct {
	Substitutions int
	Insertions    int
	Deletions     int
	Homopolymers  int
	// HomopolymerHistogram buckets homopolymer length deltas from -10
	// (index 0, with underflow) to +10 (index 20, with overflow).
	HomopolymerHistogram [21]int
}

// Add accumulates o into s.
func (s *Statistics) Add(o Statistics) {
	s.Substitutions += o.Substitutions
	s.Insertions += o.Insertions
	s.Deletions += o.Deletions
	s.Homopolymers += o.Homopolymers
	for i := range s.HomopolymerHistogram {
		s.HomopolymerHistogram[i] += o.HomopolymerHistogram[i]
	}
}

func (s *Statistics) recordHomopolymer(delta int) {
	s.Homopolymers++
	idx := delta + 10
	if idx < 0 {
		idx = 0
	}
	if idx > 20 {
		idx = 20
	}
	s.HomopolymerHistogram[idx]++
}
