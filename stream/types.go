// Package stream carries many Bencode documents over one byte stream.
//
// Each document travels in a text frame:
//
//	@frame{v=1 seq=N kind=bencode len=N [crc=XXXXXXXX] [final=true]}\n
//	<payload bytes>\n
//
// The header gives message boundaries, ordering via sequence numbers and
// optional CRC-32 integrity. The payload is passed to be2json unchanged.
// A Transcoder answers every bencode frame with a json frame, or an err
// frame when that document fails to convert.
package stream

import (
	"fmt"
)

// Version is the framing protocol version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindBencode FrameKind = 0 // Bencode document to convert
	KindJSON    FrameKind = 1 // Converted JSON document
	KindErr     FrameKind = 2 // Conversion diagnostic
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindBencode:
		return "bencode"
	case KindJSON:
		return "json"
	case KindErr:
		return "err"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind name or its numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "bencode", "0":
		return KindBencode, true
	case "json", "1":
		return KindJSON, true
	case "err", "2":
		return KindErr, true
	default:
		return 0, false
	}
}

// Frame represents a single frame.
type Frame struct {
	// Required fields
	Version uint8     // Protocol version (must be 1)
	Seq     uint64    // Sequence number, increasing by one per frame
	Kind    FrameKind // Frame kind
	Payload []byte    // Raw payload bytes

	// Optional fields
	CRC   *uint32 // CRC-32 of payload (nil if not present)
	Final bool    // Last frame of the batch
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// MaxPayloadSize is the default maximum payload size (64 MiB).
const MaxPayloadSize = 64 * 1024 * 1024

// ParseError is returned for a malformed frame header or payload.
type ParseError struct {
	Reason string
	Offset int64
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("frame: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("frame: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Seq      uint64
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("frame: seq %d: CRC mismatch: expected %08x, got %08x", e.Seq, e.Expected, e.Got)
}

// SequenceError is returned when frames arrive out of order.
type SequenceError struct {
	Last uint64 // Last accepted sequence number
	Got  uint64
}

// Duplicate reports whether the frame repeats or precedes an accepted one,
// as opposed to skipping ahead.
func (e *SequenceError) Duplicate() bool {
	return e.Got <= e.Last
}

func (e *SequenceError) Error() string {
	if e.Duplicate() {
		return fmt.Sprintf("frame: sequence not monotonic: got %d, last was %d", e.Got, e.Last)
	}
	return fmt.Sprintf("frame: sequence gap: expected %d, got %d", e.Last+1, e.Got)
}
