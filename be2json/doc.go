// Package be2json converts Bencode to JSON in a single streaming pass.
//
// The converter never builds a tree. It reads one byte at a time, keeps an
// explicit stack of open lists and dictionaries, and writes JSON as soon as
// each token is validated. Memory is bounded by the nesting depth and the
// largest byte string.
//
// # Mapping
//
//	i42e          42
//	4:spam        "spam"
//	l...e         [...]
//	d...e         {...}
//
// Dictionary keys must be byte strings. Byte strings that are valid UTF-8
// are written as JSON strings with '"' and '\' escaped. Anything else is
// written as a lowercase hex dump wrapped in markers:
//
//	3:\xff\x00\x01   "<hex>ff0001</hex>"
//
// Dictionary key order and duplicate keys are preserved as read.
//
// # Input
//
// The input is exactly one Bencode value, optionally followed by a single
// newline. Integers may not have leading zeros, and negative zero is
// rejected.
//
// # Errors
//
// The first problem stops the conversion with an *Error describing what was
// being parsed and where, including the most recent input and output bytes.
// Match the kind with errors.Is:
//
//	if errors.Is(err, be2json.ErrUnclosedContainerAtEnd) { ... }
//
// Output written before the failure is flushed and left as is.
package be2json
