package compression

import (
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// NewReader returns a reader that decompresses r with enc. Closing it
// releases the decoder but does not close r.
func NewReader(enc Encoding, r io.Reader) (io.ReadCloser, error) {
	switch enc {
	case EncNone:
		return io.NopCloser(r), nil
	case EncGZIP:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip reader")
		}
		return zr, nil
	case EncSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case EncLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case EncFlate:
		return flate.NewReader(r), nil
	case EncZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "opening zstd reader")
		}
		return zstdReadCloser{zr}, nil
	default:
		return nil, errors.Errorf("invalid encoding: %d, supported: %s", enc, SupportedEncoding())
	}
}

// NewWriter returns a writer that compresses into w with enc. Close must be
// called to flush the final block; it does not close w.
func NewWriter(enc Encoding, w io.Writer) (io.WriteCloser, error) {
	switch enc {
	case EncNone:
		return nopWriteCloser{w}, nil
	case EncGZIP:
		return gzip.NewWriter(w), nil
	case EncSnappy:
		return snappy.NewBufferedWriter(w), nil
	case EncLZ4:
		return lz4.NewWriter(w), nil
	case EncFlate:
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			return nil, errors.Wrap(err, "opening flate writer")
		}
		return fw, nil
	case EncZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "opening zstd writer")
		}
		return zw, nil
	default:
		return nil, errors.Errorf("invalid encoding: %d, supported: %s", enc, SupportedEncoding())
	}
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
