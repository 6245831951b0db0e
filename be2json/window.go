package be2json

// window keeps the most recent bytes that passed through a reader or writer.
// It is a fixed-size ring; once full, each new byte evicts the oldest one.
type window struct {
	buf  []byte
	next int
	full bool
}

func newWindow(size int) *window {
	return &window{buf: make([]byte, size)}
}

func (w *window) add(b byte) {
	if len(w.buf) == 0 {
		return
	}
	w.buf[w.next] = b
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}
}

func (w *window) write(p []byte) {
	if len(w.buf) == 0 {
		return
	}
	// Only the tail can survive.
	if len(p) > len(w.buf) {
		p = p[len(p)-len(w.buf):]
	}
	for _, b := range p {
		w.add(b)
	}
}

// bytes returns a copy of the captured bytes, oldest first.
func (w *window) bytes() []byte {
	if !w.full {
		out := make([]byte, w.next)
		copy(out, w.buf[:w.next])
		return out
	}
	out := make([]byte, 0, len(w.buf))
	out = append(out, w.buf[w.next:]...)
	out = append(out, w.buf[:w.next]...)
	return out
}
