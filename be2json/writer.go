package be2json

import (
	"bufio"
	"io"
)

// jsonWriter is the output emitter. Every byte goes to the trailing window
// before it is buffered, so a flush never loses what diagnostics need.
type jsonWriter struct {
	w      *bufio.Writer
	pos    int64
	last   byte
	latest *window
}

func newJSONWriter(w io.Writer, windowSize int) *jsonWriter {
	return &jsonWriter{w: bufio.NewWriter(w), latest: newWindow(windowSize)}
}

func (jw *jsonWriter) writeByte(b byte) error {
	jw.pos++
	jw.last = b
	jw.latest.add(b)
	return jw.w.WriteByte(b)
}

func (jw *jsonWriter) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	jw.pos += int64(len(p))
	jw.last = p[len(p)-1]
	jw.latest.write(p)
	_, err := jw.w.Write(p)
	return err
}

func (jw *jsonWriter) flush() error {
	return jw.w.Flush()
}

func (jw *jsonWriter) context() WriteContext {
	return WriteContext{
		Byte:   jw.last,
		Empty:  jw.pos == 0,
		Pos:    jw.pos,
		Latest: jw.latest.bytes(),
	}
}
