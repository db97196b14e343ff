package render

import "sync/atomic"

// Sequencer numbers render requests so that only the newest result is shown.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new sequence number, superseding every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// Latest reports whether n is the most recently issued number.
func (s *Sequencer) Latest(n uint64) bool {
	return n != 0 && s.latest.Load() == n
}

func (s *Sequencer) Current() uint64 {
	return s.latest.Load()
}
