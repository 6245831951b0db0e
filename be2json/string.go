package be2json

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Markers around the hex dump of a string that is not valid UTF-8.
const (
	HexOpenMarker  = "<hex>"
	HexCloseMarker = "</hex>"
)

// lexString consumes a length-prefixed string whose first length digit has
// already been read, then renders it as a JSON string.
func (c *Converter) lexString(first byte) error {
	length := int64(first - '0')
	for {
		b, err := c.in.readByte()
		if err != nil {
			return c.readError(ContextStringLength, err)
		}
		if b == ':' {
			break
		}
		if !isDigit(b) {
			return c.fail(ErrUnexpectedByte, ContextStringLength, "expected digit or ':'")
		}
		d := int64(b - '0')
		if length > (math.MaxInt64-d)/10 {
			return c.fail(ErrMalformedLength, ContextStringLength, "length overflows int64")
		}
		length = length*10 + d
	}

	if c.opts.MaxStringLength > 0 && length > c.opts.MaxStringLength {
		return c.fail(ErrStringLengthMismatch, ContextStringLength,
			fmt.Sprintf("declared %d bytes, limit is %d", length, c.opts.MaxStringLength))
	}

	// The body grows with the bytes actually received, so a huge declared
	// length on a short input costs nothing.
	c.body.Reset()
	if length > 0 {
		n, err := io.CopyN(&c.body, c.in, length)
		if err != nil {
			if err == io.EOF {
				return c.fail(ErrUnexpectedEndOfInput, ContextStringValue,
					fmt.Sprintf("declared %d bytes, got %d", length, n))
			}
			return c.ioError(ContextStringValue, err)
		}
	}

	body := c.body.Bytes()
	if !utf8.Valid(body) {
		c.stats.HexStrings++
		return c.emitHex(body)
	}
	return c.emitLiteral(body)
}

// emitLiteral writes body as a quoted string, escaping '"' and '\' (and
// control bytes when EscapeControl is set).
func (c *Converter) emitLiteral(body []byte) error {
	if err := c.emitByte('"'); err != nil {
		return err
	}
	start := 0
	for i := 0; i < len(body); i++ {
		esc := c.escape(body[i])
		if esc == "" {
			continue
		}
		if err := c.emit(body[start:i]); err != nil {
			return err
		}
		if err := c.emit([]byte(esc)); err != nil {
			return err
		}
		start = i + 1
	}
	if err := c.emit(body[start:]); err != nil {
		return err
	}
	return c.emitByte('"')
}

func (c *Converter) escape(b byte) string {
	switch b {
	case '"':
		return `\"`
	case '\\':
		return `\\`
	}
	if !c.opts.EscapeControl || (b >= 0x20 && b != 0x7f) {
		return ""
	}
	switch b {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\b':
		return `\b`
	case '\f':
		return `\f`
	default:
		return fmt.Sprintf(`\u%04x`, b)
	}
}

// emitHex writes body as "<hex>…</hex>" with two lowercase hex digits per
// byte.
func (c *Converter) emitHex(body []byte) error {
	if err := c.emit([]byte(`"` + HexOpenMarker)); err != nil {
		return err
	}
	var scratch [2048]byte
	for len(body) > 0 {
		chunk := body
		if len(chunk) > len(scratch)/2 {
			chunk = chunk[:len(scratch)/2]
		}
		n := hex.Encode(scratch[:], chunk)
		if err := c.emit(scratch[:n]); err != nil {
			return err
		}
		body = body[len(chunk):]
	}
	return c.emit([]byte(HexCloseMarker + `"`))
}
