package term

// FakeReader returns pre-queued line batches with no wall-clock delay. It
// exists purely so the polling engine and match paths are unit-testable
// without a live pane or log file.
type FakeReader struct {
	batches [][]Line
}

// NewFakeReader queues the given batches; each ReadNext pops one.
func NewFakeReader(batches ...[]Line) *FakeReader {
	return &FakeReader{batches: batches}
}

// Queue appends another batch to be returned by a future ReadNext.
func (r *FakeReader) Queue(lines ...Line) {
	r.batches = append(r.batches, lines)
}

// ReadNext pops the next queued batch, or returns nothing when drained.
func (r *FakeReader) ReadNext(opts ReadOptions) ([]Line, error) {
	if len(r.batches) == 0 {
		return nil, nil
	}
	batch := r.batches[0]
	r.batches = r.batches[1:]
	return tailLines(batch, opts.Max), nil
}

// WaitForMatch scans the remaining queued batches in order without sleeping.
func (r *FakeReader) WaitForMatch(q MatchQuery, opts WaitOptions) (MatchResult, error) {
	for len(r.batches) > 0 {
		lines, _ := r.ReadNext(ReadOptions{})
		if res := Match(lines, q); res.Matched {
			return res, nil
		}
	}
	return MatchResult{}, nil
}
