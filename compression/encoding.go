// Package compression wraps the codecs a Bencode input or JSON output may be
// stored or transferred with.
package compression

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Encoding identifies a compression codec.
type Encoding byte

const (
	EncNone Encoding = iota
	EncGZIP
	EncSnappy
	EncLZ4
	EncFlate
	EncZstd
)

var supportedEncoding = []Encoding{
	EncNone,
	EncGZIP,
	EncSnappy,
	EncLZ4,
	EncFlate,
	EncZstd,
}

func (e Encoding) String() string {
	switch e {
	case EncNone:
		return "none"
	case EncGZIP:
		return "gzip"
	case EncSnappy:
		return "snappy"
	case EncLZ4:
		return "lz4"
	case EncFlate:
		return "flate"
	case EncZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", byte(e))
	}
}

// ParseEncoding parses an encoding name, case insensitively. The empty
// string is EncNone.
func ParseEncoding(enc string) (Encoding, error) {
	if enc == "" {
		return EncNone, nil
	}
	for _, e := range supportedEncoding {
		if strings.EqualFold(e.String(), enc) {
			return e, nil
		}
	}
	return 0, errors.Errorf("invalid encoding: %s, supported: %s", enc, SupportedEncoding())
}

// SupportedEncoding returns the comma separated list of encoding names.
func SupportedEncoding() string {
	var sb strings.Builder
	for i := range supportedEncoding {
		sb.WriteString(supportedEncoding[i].String())
		if i != len(supportedEncoding)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}
