package be2json

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ============================================================
// Options
// ============================================================

const (
	// DefaultMaxDepth bounds container nesting.
	DefaultMaxDepth = 1024

	// DefaultMaxStringLength bounds a single string body (64 MiB).
	DefaultMaxStringLength = 64 * 1024 * 1024

	// DefaultWindowSize is the size of the input and output windows kept
	// for diagnostics.
	DefaultWindowSize = 1024
)

// Options configures a conversion.
type Options struct {
	// MaxDepth is the maximum number of nested open containers.
	// Zero means DefaultMaxDepth.
	MaxDepth int

	// MaxStringLength is the largest declared string length accepted.
	// Zero means DefaultMaxStringLength, negative means no limit.
	MaxStringLength int64

	// WindowSize is how many trailing input and output bytes an Error
	// carries. Zero means DefaultWindowSize, negative disables capture.
	WindowSize int

	// EscapeControl escapes control bytes in literal strings so the output
	// is strict JSON. By default only '"' and '\' are escaped.
	EscapeControl bool
}

// DefaultOptions returns the options used by Convert.
func DefaultOptions() Options {
	return Options{
		MaxDepth:        DefaultMaxDepth,
		MaxStringLength: DefaultMaxStringLength,
		WindowSize:      DefaultWindowSize,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxStringLength == 0 {
		o.MaxStringLength = DefaultMaxStringLength
	}
	switch {
	case o.WindowSize == 0:
		o.WindowSize = DefaultWindowSize
	case o.WindowSize < 0:
		o.WindowSize = 0
	}
	return o
}

// Stats describes a finished (or aborted) conversion.
type Stats struct {
	BytesRead    int64
	BytesWritten int64
	Integers     int
	Strings      int
	HexStrings   int // Strings rendered in the hex-wrapped form
	Lists        int
	Dicts        int
	MaxDepth     int // Deepest nesting reached
}

// ============================================================
// Converter
// ============================================================

// Converter transcodes one Bencode value read from an io.Reader into JSON
// written to an io.Writer. A Converter is single use and not safe for
// concurrent use.
type Converter struct {
	in    *byteReader
	out   *jsonWriter
	stack *stack
	opts  Options
	stats Stats

	done    bool // top-level value complete
	newline bool // trailing newline consumed
	used    bool

	body bytes.Buffer // string body, reused across strings
}

// NewConverter prepares a conversion from r to w.
func NewConverter(r io.Reader, w io.Writer, opts Options) *Converter {
	opts = opts.withDefaults()
	return &Converter{
		in:    newByteReader(r, opts.WindowSize),
		out:   newJSONWriter(w, opts.WindowSize),
		stack: newStack(opts.MaxDepth),
		opts:  opts,
	}
}

// Convert runs the conversion to completion. Output is flushed to the
// writer even on failure; the returned error is an *Error.
func (c *Converter) Convert() error {
	if c.used {
		return errors.New("be2json: converter already used")
	}
	c.used = true

	err := c.run()
	if ferr := c.out.flush(); ferr != nil && err == nil {
		err = c.ioError(ContextValue, ferr)
	}

	c.stats.BytesRead = c.in.pos
	c.stats.BytesWritten = c.out.pos
	c.stats.MaxDepth = c.stack.deepest
	return err
}

// Stats returns counters for the conversion so far.
func (c *Converter) Stats() Stats {
	return c.stats
}

func (c *Converter) run() error {
	for {
		b, err := c.in.readByte()
		if err == io.EOF {
			return c.finish()
		}
		if err != nil {
			return c.ioError(c.currentContext(), err)
		}
		if err := c.dispatch(b); err != nil {
			return err
		}
	}
}

// dispatch handles one structural byte.
func (c *Converter) dispatch(b byte) error {
	if c.done {
		switch {
		case b == '\n' && !c.newline:
			c.newline = true
			return nil
		case b == 'e':
			return c.fail(ErrUnmatchedCloseToken, ContextTrailing, "value already complete")
		default:
			return c.fail(ErrUnexpectedByte, ContextTrailing, "only one top-level value is allowed")
		}
	}

	switch {
	case b == 'd':
		if err := c.beginValue(false); err != nil {
			return err
		}
		c.stats.Dicts++
		return c.open(dictAwaitingKey, '{')

	case b == 'l':
		if err := c.beginValue(false); err != nil {
			return err
		}
		c.stats.Lists++
		return c.open(listEmpty, '[')

	case b == 'i':
		if err := c.beginValue(false); err != nil {
			return err
		}
		c.stats.Integers++
		if err := c.lexInteger(); err != nil {
			return err
		}
		c.completeValue()
		return nil

	case isDigit(b):
		if err := c.beginValue(true); err != nil {
			return err
		}
		c.stats.Strings++
		if err := c.lexString(b); err != nil {
			return err
		}
		c.completeValue()
		return nil

	case b == 'e':
		return c.close()

	default:
		return c.fail(ErrUnexpectedByte, c.currentContext(), "not the start of a value")
	}
}

// beginValue writes the separator owed to the parent frame.
func (c *Converter) beginValue(isString bool) error {
	switch c.stack.beginValue(isString) {
	case sepNone:
		return nil
	case sepComma:
		return c.emitByte(',')
	case sepColon:
		return c.emitByte(':')
	case sepKeyNotString:
		return c.fail(ErrUnexpectedByte, ContextDictKey, "dictionary keys must be strings")
	default:
		return c.fail(ErrUnexpectedByte, c.currentContext(), "invalid frame state")
	}
}

func (c *Converter) open(state frameState, delim byte) error {
	if !c.stack.push(state) {
		return c.fail(ErrStackDepthExceeded, state.context(),
			fmt.Sprintf("maximum depth is %d", c.opts.MaxDepth))
	}
	return c.emitByte(delim)
}

func (c *Converter) close() error {
	if c.stack.empty() {
		return c.fail(ErrUnmatchedCloseToken, ContextValue, "no open list or dictionary")
	}

	var delim byte
	switch c.stack.top() {
	case listEmpty, listHasElements:
		delim = ']'
	case dictAwaitingKey, dictHasPair:
		delim = '}'
	case dictAwaitingValue:
		return c.fail(ErrUnexpectedByte, ContextDictValue, "dictionary key without value")
	default:
		return c.fail(ErrUnexpectedByte, c.currentContext(), "invalid frame state")
	}

	c.stack.pop()
	if err := c.emitByte(delim); err != nil {
		return err
	}
	c.completeValue()
	return nil
}

// completeValue records that a value ended. Separators are decided when the
// next value begins, so only the top level needs tracking here.
func (c *Converter) completeValue() {
	if c.stack.empty() {
		c.done = true
	}
}

func (c *Converter) finish() error {
	if !c.stack.empty() {
		return c.fail(ErrUnclosedContainerAtEnd, c.currentContext(),
			fmt.Sprintf("%d container(s) still open", c.stack.depth()))
	}
	if !c.done {
		return c.fail(ErrUnexpectedEndOfInput, ContextValue, "empty input")
	}
	return nil
}

func (c *Converter) currentContext() Context {
	if c.stack.empty() {
		if c.done {
			return ContextTrailing
		}
		return ContextValue
	}
	switch c.stack.top() {
	case listEmpty, listHasElements:
		return ContextList
	case dictAwaitingKey, dictHasPair:
		return ContextDictKey
	case dictAwaitingValue:
		return ContextDictValue
	default:
		return ContextValue
	}
}

// ============================================================
// Error construction
// ============================================================

func (c *Converter) fail(kind Kind, ctx Context, detail string) *Error {
	return &Error{
		Kind:    kind,
		Context: ctx,
		Detail:  detail,
		Read:    c.in.context(),
		Write:   c.out.context(),
	}
}

func (c *Converter) ioError(ctx Context, err error) *Error {
	e := c.fail(ErrIO, ctx, "")
	e.Err = err
	return e
}

// readError maps a failed read inside a token.
func (c *Converter) readError(ctx Context, err error) *Error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return c.fail(ErrUnexpectedEndOfInput, ctx, "")
	}
	return c.ioError(ctx, err)
}

func (c *Converter) emitByte(b byte) error {
	if err := c.out.writeByte(b); err != nil {
		return c.ioError(c.currentContext(), err)
	}
	return nil
}

func (c *Converter) emit(p []byte) error {
	if err := c.out.write(p); err != nil {
		return c.ioError(c.currentContext(), err)
	}
	return nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ============================================================
// Entry points
// ============================================================

// Convert transcodes Bencode from r to JSON on w with default options.
func Convert(r io.Reader, w io.Writer) error {
	return ConvertWithOptions(r, w, DefaultOptions())
}

// ConvertWithOptions transcodes Bencode from r to JSON on w.
func ConvertWithOptions(r io.Reader, w io.Writer, opts Options) error {
	return NewConverter(r, w, opts).Convert()
}

// ConvertBytes converts an in-memory Bencode value. On failure no output is
// returned.
func ConvertBytes(input []byte) ([]byte, error) {
	return ConvertBytesWithOptions(input, DefaultOptions())
}

// ConvertBytesWithOptions is ConvertBytes with explicit options.
func ConvertBytesWithOptions(input []byte, opts Options) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(input) + len(input)/4)
	if err := ConvertWithOptions(bytes.NewReader(input), &out, opts); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ConvertString converts a Bencode string to a JSON string.
func ConvertString(input string) (string, error) {
	var out strings.Builder
	if err := Convert(strings.NewReader(input), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
