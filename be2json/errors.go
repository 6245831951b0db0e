package be2json

import (
	"fmt"
	"strings"
)

// ============================================================
// Diagnostics
// ============================================================

// Kind classifies a conversion failure. Kind implements error so a kind can
// be used as an errors.Is target:
//
//	if errors.Is(err, be2json.ErrLeadingZeroInteger) { ... }
type Kind uint8

const (
	ErrUnexpectedByte Kind = iota + 1
	ErrUnexpectedEndOfInput
	ErrLeadingZeroInteger
	ErrMalformedLength
	ErrStringLengthMismatch
	ErrUnmatchedCloseToken
	ErrUnclosedContainerAtEnd
	ErrStackDepthExceeded
	ErrIO
)

func (k Kind) String() string {
	switch k {
	case ErrUnexpectedByte:
		return "unexpected byte"
	case ErrUnexpectedEndOfInput:
		return "unexpected end of input"
	case ErrLeadingZeroInteger:
		return "leading zero in integer"
	case ErrMalformedLength:
		return "malformed string length"
	case ErrStringLengthMismatch:
		return "string length exceeds limit"
	case ErrUnmatchedCloseToken:
		return "unmatched close token"
	case ErrUnclosedContainerAtEnd:
		return "unclosed container at end of input"
	case ErrStackDepthExceeded:
		return "nesting depth exceeded"
	case ErrIO:
		return "I/O error"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func (k Kind) Error() string {
	return k.String()
}

// Context names the grammar production being parsed when a failure happened.
type Context uint8

const (
	ContextValue Context = iota
	ContextInteger
	ContextStringLength
	ContextStringValue
	ContextList
	ContextDict
	ContextDictKey
	ContextDictValue
	ContextTrailing
)

func (c Context) String() string {
	switch c {
	case ContextValue:
		return "value"
	case ContextInteger:
		return "integer"
	case ContextStringLength:
		return "string length"
	case ContextStringValue:
		return "string value"
	case ContextList:
		return "list"
	case ContextDict:
		return "dictionary"
	case ContextDictKey:
		return "dictionary key"
	case ContextDictValue:
		return "dictionary value"
	case ContextTrailing:
		return "trailing data"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ReadContext is the input side of a diagnostic.
type ReadContext struct {
	Byte   byte   // Last byte read (the offending one), unless EOF
	EOF    bool   // Input ended
	Pos    int64  // Bytes consumed so far
	Latest []byte // Trailing window of input bytes, oldest first
}

func (c ReadContext) String() string {
	var b strings.Builder
	b.WriteString("read context:")
	if c.EOF {
		b.WriteString(" EOF,")
	} else if c.Pos > 0 {
		writeByteDesc(&b, c.Byte)
	}
	fmt.Fprintf(&b, " input pos %d, latest input bytes dump: %v (UTF-8 string: `%s`)",
		c.Pos, c.Latest, renderText(c.Latest))
	return b.String()
}

// WriteContext is the output side of a diagnostic.
type WriteContext struct {
	Byte   byte   // Last byte written
	Empty  bool   // Nothing written yet
	Pos    int64  // Bytes written so far
	Latest []byte // Trailing window of output bytes, oldest first
}

func (c WriteContext) String() string {
	var b strings.Builder
	b.WriteString("write context:")
	if !c.Empty {
		writeByteDesc(&b, c.Byte)
	}
	fmt.Fprintf(&b, " output pos %d, latest output bytes dump: %v (UTF-8 string: `%s`)",
		c.Pos, c.Latest, renderText(c.Latest))
	return b.String()
}

func writeByteDesc(b *strings.Builder, c byte) {
	fmt.Fprintf(b, " byte `%d` (char: %q),", c, rune(c))
}

// renderText is a best-effort text view of a byte window.
func renderText(p []byte) string {
	return strings.ToValidUTF8(string(p), "�")
}

// Error is returned for every failed conversion. Parsing stops at the first
// failure, so there is exactly one Error per conversion.
type Error struct {
	Kind    Kind
	Context Context
	Detail  string // Optional extra explanation
	Read    ReadContext
	Write   WriteContext
	Err     error // Underlying cause for ErrIO
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("be2json: ")
	b.WriteString(e.Kind.String())
	b.WriteString(" parsing ")
	b.WriteString(e.Context.String())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	b.WriteString("; ")
	b.WriteString(e.Read.String())
	b.WriteString("; ")
	b.WriteString(e.Write.String())
	return b.String()
}

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}
