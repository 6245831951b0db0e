package compression

import (
	"fmt"
	"path/filepath"
)

const (
	ExtNone   = ""
	ExtGZIP   = ".gz"
	ExtSnappy = ".sz"
	ExtLZ4    = ".lz4"
	ExtFlate  = ".zz"
	ExtZstd   = ".zst"
)

func ToFileExtension(e Encoding) string {
	switch e {
	case EncNone:
		return ExtNone
	case EncGZIP:
		return ExtGZIP
	case EncLZ4:
		return ExtLZ4
	case EncSnappy:
		return ExtSnappy
	case EncFlate:
		return ExtFlate
	case EncZstd:
		return ExtZstd
	default:
		panic(fmt.Sprintf("invalid encoding: %d, supported: %s", e, SupportedEncoding()))
	}
}

// FromFileExtension maps an extension (with its dot) to an encoding. Any
// extension that is not a compression suffix, such as ".torrent", is
// EncNone.
func FromFileExtension(ext string) Encoding {
	switch ext {
	case ExtGZIP:
		return EncGZIP
	case ExtLZ4:
		return EncLZ4
	case ExtSnappy:
		return EncSnappy
	case ExtFlate:
		return EncFlate
	case ExtZstd:
		return EncZstd
	default:
		return EncNone
	}
}

// FromPath picks the encoding for a file by its extension.
func FromPath(path string) Encoding {
	return FromFileExtension(filepath.Ext(path))
}
