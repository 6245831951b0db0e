package stream

// Sequence enforces frame ordering within one batch. The first frame may
// carry any sequence number; every later frame must carry the next one.
type Sequence struct {
	last    uint64
	started bool
}

// Check accepts seq as the next frame or returns a *SequenceError for a
// duplicate, a step backwards, or a gap.
func (s *Sequence) Check(seq uint64) error {
	if s.started && seq != s.last+1 {
		return &SequenceError{Last: s.last, Got: seq}
	}
	s.last = seq
	s.started = true
	return nil
}

// Last returns the last accepted sequence number and whether any frame was
// accepted.
func (s *Sequence) Last() (uint64, bool) {
	return s.last, s.started
}
