package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("d8:announce22:http://example.com:80e", 200))

	for _, enc := range supportedEncoding {
		t.Run(enc.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(enc, &buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if enc != EncNone {
				require.NotEqual(t, payload, buf.Bytes())
			}

			r, err := NewReader(enc, &buf)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, payload, got)
		})
	}
}

func TestParseEncoding(t *testing.T) {
	for _, enc := range supportedEncoding {
		got, err := ParseEncoding(strings.ToUpper(enc.String()))
		require.NoError(t, err)
		require.Equal(t, enc, got)
	}

	got, err := ParseEncoding("")
	require.NoError(t, err)
	require.Equal(t, EncNone, got)

	_, err = ParseEncoding("brotli")
	require.ErrorContains(t, err, "supported: none, gzip, snappy, lz4, flate, zstd")
}

func TestFileExtension(t *testing.T) {
	for _, enc := range supportedEncoding {
		require.Equal(t, enc, FromFileExtension(ToFileExtension(enc)))
	}
	require.Equal(t, EncGZIP, FromPath("dumps/ubuntu.torrent.gz"))
	require.Equal(t, EncZstd, FromPath("out.json.zst"))
	require.Equal(t, EncNone, FromPath("ubuntu.torrent"))
	require.Panics(t, func() { ToFileExtension(Encoding(42)) })
}

func TestInvalidEncoding(t *testing.T) {
	_, err := NewReader(Encoding(42), bytes.NewReader(nil))
	require.Error(t, err)
	_, err = NewWriter(Encoding(42), io.Discard)
	require.Error(t, err)
}

func TestGzipReaderBadHeader(t *testing.T) {
	_, err := NewReader(EncGZIP, strings.NewReader("not gzip"))
	require.ErrorContains(t, err, "opening gzip reader")
}
