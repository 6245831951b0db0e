package be2json

import (
	"bufio"
	"io"
)

// byteReader is the input cursor. It counts consumed bytes and remembers the
// latest ones for diagnostics.
type byteReader struct {
	r      *bufio.Reader
	pos    int64
	last   byte
	eof    bool
	latest *window
}

func newByteReader(r io.Reader, windowSize int) *byteReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &byteReader{r: br, latest: newWindow(windowSize)}
}

// readByte returns the next input byte. At end of input it returns io.EOF and
// marks the cursor so diagnostics report EOF instead of the last byte.
func (br *byteReader) readByte() (byte, error) {
	b, err := br.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			br.eof = true
		}
		return 0, err
	}
	br.pos++
	br.last = b
	br.latest.add(b)
	return b, nil
}

// Read implements io.Reader so string bodies can be copied in chunks while
// still being counted and captured.
func (br *byteReader) Read(p []byte) (int, error) {
	n, err := br.r.Read(p)
	if n > 0 {
		br.pos += int64(n)
		br.last = p[n-1]
		br.latest.write(p[:n])
	}
	if err == io.EOF {
		br.eof = true
	}
	return n, err
}

func (br *byteReader) context() ReadContext {
	return ReadContext{
		Byte:   br.last,
		EOF:    br.eof,
		Pos:    br.pos,
		Latest: br.latest.bytes(),
	}
}
