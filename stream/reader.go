package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader reads text frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	offset     int64 // bytes consumed so far
	maxPayload int
	verifyCRC  bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithCRCVerification enables or disables CRC verification (default: on).
func WithCRCVerification(verify bool) ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = verify
	}
}

// NewReader creates a new frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next reads and returns the next frame.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset

	headerLine, err := r.r.ReadString('\n')
	r.offset += int64(len(headerLine))
	if err != nil {
		if err == io.EOF && headerLine == "" {
			return nil, io.EOF
		}
		if err == io.EOF {
			return nil, &ParseError{Reason: "truncated header", Offset: start}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	frame, payloadLen, err := parseHeader(headerLine, start)
	if err != nil {
		return nil, err
	}

	if payloadLen > r.maxPayload {
		return nil, &ParseError{
			Reason: fmt.Sprintf("payload too large: %d > %d", payloadLen, r.maxPayload),
			Offset: start,
		}
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		n, err := io.ReadFull(r.r, frame.Payload)
		r.offset += int64(n)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, &ParseError{
					Reason: fmt.Sprintf("truncated payload: got %d of %d bytes", n, payloadLen),
					Offset: r.offset,
				}
			}
			return nil, fmt.Errorf("read payload: %w", err)
		}
	}

	// Trailing newline, optional at EOF.
	if b, err := r.r.ReadByte(); err == nil {
		if b == '\n' {
			r.offset++
		} else {
			_ = r.r.UnreadByte()
		}
	}

	if r.verifyCRC && frame.CRC != nil {
		computed := ComputeCRC(frame.Payload)
		if computed != *frame.CRC {
			return nil, &CRCMismatchError{Seq: frame.Seq, Expected: *frame.CRC, Got: computed}
		}
	}

	return frame, nil
}

// parseHeader parses the @frame{...} header line and returns the frame
// together with its declared payload length.
func parseHeader(line string, offset int64) (*Frame, int, error) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: offset}
	}

	endIdx := strings.LastIndex(line, "}")
	if endIdx < 0 {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: offset + int64(len(line))}
	}

	content := line[len("@frame{"):endIdx]

	frame := &Frame{Version: Version}
	payloadLen := -1
	haveKind := false

	for _, pair := range tokenize(content) {
		eqIdx := strings.Index(pair, "=")
		if eqIdx < 0 {
			continue // skip malformed pairs
		}
		key := pair[:eqIdx]
		val := pair[eqIdx+1:]

		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil || uint8(v) != Version {
				return nil, 0, &ParseError{Reason: "unsupported version: " + val, Offset: offset}
			}
			frame.Version = uint8(v)

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid seq", Offset: offset}
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid kind: " + val, Offset: offset}
			}
			frame.Kind = kind
			haveKind = true

		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid len", Offset: offset}
			}
			payloadLen = int(l)

		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid crc: " + val, Offset: offset}
			}
			frame.CRC = &crc

		case "final":
			frame.Final = val == "true" || val == "1"
		}
	}

	if payloadLen < 0 {
		return nil, 0, &ParseError{Reason: "missing len", Offset: offset}
	}
	if !haveKind {
		return nil, 0, &ParseError{Reason: "missing kind", Offset: offset}
	}

	return frame, payloadLen, nil
}

// tokenize splits key=value pairs separated by spaces or commas.
func tokenize(s string) []string {
	var tokens []string
	var current bytes.Buffer

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', ',', '\t':
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parseCRC parses CRC value: "crc32:XXXXXXXX" or "XXXXXXXX"
func parseCRC(val string) (uint32, bool) {
	val = strings.TrimPrefix(val, "crc32:")
	if len(val) != 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}
