package be2json

// frameState is the emission sub-state of an open container.
type frameState uint8

const (
	listEmpty         frameState = iota // [ written, no element yet
	listHasElements                     // next element needs ','
	dictAwaitingKey                     // { written, no pair yet
	dictAwaitingValue                   // key written, value needs ':'
	dictHasPair                         // next key needs ','
)

func (s frameState) isList() bool {
	return s == listEmpty || s == listHasElements
}

func (s frameState) context() Context {
	if s.isList() {
		return ContextList
	}
	return ContextDict
}

// stack holds one frame per open container. Depth equals nesting depth.
type stack struct {
	frames   []frameState
	maxDepth int
	deepest  int
}

func newStack(maxDepth int) *stack {
	capacity := maxDepth
	if capacity > 64 {
		capacity = 64
	}
	return &stack{frames: make([]frameState, 0, capacity), maxDepth: maxDepth}
}

func (s *stack) empty() bool {
	return len(s.frames) == 0
}

func (s *stack) depth() int {
	return len(s.frames)
}

// push opens a container. It reports false when the depth bound is reached.
func (s *stack) push(state frameState) bool {
	if len(s.frames) >= s.maxDepth {
		return false
	}
	s.frames = append(s.frames, state)
	if len(s.frames) > s.deepest {
		s.deepest = len(s.frames)
	}
	return true
}

// pop closes the innermost container and returns its state.
// Callers check empty first.
func (s *stack) pop() frameState {
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

func (s *stack) top() frameState {
	return s.frames[len(s.frames)-1]
}

// separatorResult tells the dispatch loop what to emit before a new value.
type separatorResult uint8

const (
	sepNone separatorResult = iota
	sepComma
	sepColon
	sepKeyNotString // value in key position is not a string
	sepBadState     // frame state outside the known set
)

// beginValue advances the top frame for a value that is about to start and
// returns the separator that must precede it. isString tells whether the
// value is a byte string, the only legal dictionary key.
func (s *stack) beginValue(isString bool) separatorResult {
	if s.empty() {
		return sepNone
	}
	i := len(s.frames) - 1
	switch s.frames[i] {
	case listEmpty:
		s.frames[i] = listHasElements
		return sepNone
	case listHasElements:
		return sepComma
	case dictAwaitingKey:
		if !isString {
			return sepKeyNotString
		}
		s.frames[i] = dictAwaitingValue
		return sepNone
	case dictAwaitingValue:
		s.frames[i] = dictHasPair
		return sepColon
	case dictHasPair:
		if !isString {
			return sepKeyNotString
		}
		s.frames[i] = dictAwaitingValue
		return sepComma
	default:
		return sepBadState
	}
}
