package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer writes text frames to an io.Writer.
type Writer struct {
	w       io.Writer
	withCRC bool // Whether to compute and include CRC
}

// NewWriter creates a new frame writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewWriterWithCRC creates a writer that computes CRC for each frame.
func NewWriterWithCRC(w io.Writer) *Writer {
	return &Writer{w: w, withCRC: true}
}

// WriteFrame writes a single frame.
//
// Format:
//
//	@frame{v=1 seq=N kind=K len=N [crc=X] [final=true]}\n
//	<payload bytes>\n
func (w *Writer) WriteFrame(f *Frame) error {
	var header strings.Builder
	header.WriteString("@frame{v=")
	if f.Version == 0 {
		header.WriteString(strconv.Itoa(int(Version)))
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(f.Payload)))

	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}

	if f.Final {
		header.WriteString(" final=true")
	}

	header.WriteString("}\n")

	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.w.Write(f.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}

// WriteBencode writes a bencode frame.
func (w *Writer) WriteBencode(seq uint64, payload []byte, final bool) error {
	return w.WriteFrame(&Frame{Version: Version, Seq: seq, Kind: KindBencode, Payload: payload, Final: final})
}

// WriteJSON writes a json frame.
func (w *Writer) WriteJSON(seq uint64, payload []byte, final bool) error {
	return w.WriteFrame(&Frame{Version: Version, Seq: seq, Kind: KindJSON, Payload: payload, Final: final})
}

// WriteErr writes an error frame.
func (w *Writer) WriteErr(seq uint64, payload []byte, final bool) error {
	return w.WriteFrame(&Frame{Version: Version, Seq: seq, Kind: KindErr, Payload: payload, Final: final})
}
