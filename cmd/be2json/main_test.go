package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/be2json/compression"
	"github.com/Neumenon/be2json/stream"
)

type testEnv struct {
	*env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(stdin string) testEnv {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return testEnv{
		env: &env{
			fs:     afero.NewMemMapFs(),
			stdin:  strings.NewReader(stdin),
			stdout: stdout,
			stderr: stderr,
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (e testEnv) run(args ...string) int {
	return run(args, e.env, nil)
}

func TestConvert_Stdio(t *testing.T) {
	e := newTestEnv("d3:bar4:spam3:fooi42ee")
	require.Equal(t, 0, e.run())
	require.Equal(t, `{"bar":"spam","foo":42}`, e.stdout.String())
	require.Empty(t, e.stderr.String())
}

func TestConvert_ExplicitCommand(t *testing.T) {
	e := newTestEnv("l1:\xffe")
	require.Equal(t, 0, e.run("convert"))
	require.Equal(t, `["<hex>ff</hex>"]`, e.stdout.String())
}

func TestConvert_Files(t *testing.T) {
	e := newTestEnv("")
	require.NoError(t, afero.WriteFile(e.fs, "in.torrent", []byte("d4:infod6:lengthi10eee"), 0o644))

	require.Equal(t, 0, e.run("convert", "-i", "in.torrent", "-o", "out.json"))

	got, err := afero.ReadFile(e.fs, "out.json")
	require.NoError(t, err)
	require.Equal(t, `{"info":{"length":10}}`, string(got))
	require.Empty(t, e.stdout.String())
}

func TestConvert_CompressedByExtension(t *testing.T) {
	e := newTestEnv("")

	var buf bytes.Buffer
	w, err := compression.NewWriter(compression.EncGZIP, &buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("li1ei2ee"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, afero.WriteFile(e.fs, "in.torrent.gz", buf.Bytes(), 0o644))

	require.Equal(t, 0, e.run("-i", "in.torrent.gz", "-o", "out.json.zst"))

	f, err := e.fs.Open("out.json.zst")
	require.NoError(t, err)
	defer f.Close()
	r, err := compression.NewReader(compression.EncZstd, f)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "[1,2]", string(got))
}

func TestConvert_ExplicitCompression(t *testing.T) {
	e := newTestEnv("i7e")
	require.Equal(t, 0, e.run("--output.compression=snappy"))

	r, err := compression.NewReader(compression.EncSnappy, e.stdout)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "7", string(got))
}

func TestConvert_Failure(t *testing.T) {
	e := newTestEnv("l4:spami00ee")
	require.Equal(t, 1, e.run())

	require.Equal(t, `["spam",0`, e.stdout.String())
	require.Contains(t, e.stderr.String(), "leading zero in integer parsing integer at <stdin>:10")
	require.Contains(t, e.stderr.String(), "latest input bytes dump")
}

func TestConvert_EngineFlags(t *testing.T) {
	e := newTestEnv("llleee")
	require.Equal(t, 1, e.run("--max-depth=2"))
	require.Contains(t, e.stderr.String(), "nesting depth exceeded")

	e = newTestEnv("2:a\n")
	require.Equal(t, 0, e.run("--escape-control"))
	require.Equal(t, `"a\n"`, e.stdout.String())

	e = newTestEnv("4:spam")
	require.Equal(t, 1, e.run("--max-string-length=3"))
	require.Contains(t, e.stderr.String(), "string length exceeds limit")
}

func TestConvert_Stats(t *testing.T) {
	e := newTestEnv("d1:al1:bi1ee1:c1:\xffe")
	require.Equal(t, 0, e.run("--stats"))
	require.Contains(t, e.stderr.String(), "integers: 1, strings: 4 (1 hex), lists: 1, dictionaries: 1, max depth: 2")
}

func TestConvert_MissingInput(t *testing.T) {
	e := newTestEnv("")
	require.Equal(t, 1, e.run("-i", "missing.torrent"))
	require.Contains(t, e.stderr.String(), "opening input missing.torrent")
}

func TestConvert_BadCompressionFlag(t *testing.T) {
	e := newTestEnv("i1e")
	require.Equal(t, 1, e.run("--input.compression=brotli"))
	require.Contains(t, e.stderr.String(), "invalid encoding: brotli")
}

func TestFrames(t *testing.T) {
	var in bytes.Buffer
	w := stream.NewWriter(&in)
	require.NoError(t, w.WriteBencode(1, []byte("i1e"), false))
	require.NoError(t, w.WriteBencode(2, []byte("i01e"), false))
	require.NoError(t, w.WriteBencode(3, []byte("le"), true))

	e := newTestEnv(in.String())
	require.Equal(t, 0, e.run("frames", "--crc"))

	frames, err := stream.NewReader(e.stdout).ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, 3)
	require.Equal(t, stream.KindJSON, frames[0].Kind)
	require.Equal(t, "1", string(frames[0].Payload))
	require.Equal(t, stream.KindErr, frames[1].Kind)
	require.Equal(t, stream.KindJSON, frames[2].Kind)
	require.True(t, frames[2].Final)
	require.True(t, frames[0].HasCRC())

	require.Contains(t, e.stderr.String(), "frame failed to convert")
	require.Contains(t, e.stderr.String(), "converted=2 failed=1")
}

func TestFrames_Broken(t *testing.T) {
	e := newTestEnv("@frame{v=1 seq=1 kind=bencode len=3}\ni1e\nnot a frame\n")
	require.Equal(t, 1, e.run("frames"))
	require.Contains(t, e.stderr.String(), "expected @frame{")
	require.Contains(t, e.stdout.String(), "kind=json")
}

func TestVersion(t *testing.T) {
	e := newTestEnv("")
	require.Equal(t, 0, e.run("version"))
	require.Equal(t, "be2json version dev\n", e.stdout.String())
}

func TestUnknownFlag(t *testing.T) {
	e := newTestEnv("")
	require.Equal(t, 1, e.run("--no-such-flag"))
	require.Contains(t, e.stderr.String(), "no-such-flag")
}
