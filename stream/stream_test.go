package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Neumenon/be2json/be2json"
)

// ============================================================
// Writer Tests
// ============================================================

func TestWriter_MinimalFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	err := w.WriteFrame(&Frame{
		Version: 1,
		Seq:     0,
		Kind:    KindBencode,
		Payload: []byte("le"),
	})
	if err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got := buf.String()
	want := "@frame{v=1 seq=0 kind=bencode len=2}\nle\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriter_WithCRC(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithCRC(&buf)

	if err := w.WriteJSON(5, []byte(`{"a":1}`), true); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "crc=") {
		t.Errorf("expected crc= in output: %s", got)
	}
	if !strings.Contains(got, "kind=json") || !strings.Contains(got, "final=true") {
		t.Errorf("unexpected header: %s", got)
	}
}

func TestWriter_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithCRC(&buf)

	if err := w.WriteErr(3, nil, false); err != nil {
		t.Fatalf("WriteErr failed: %v", err)
	}

	want := "@frame{v=1 seq=3 kind=err len=0}\n\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

// ============================================================
// Reader Tests
// ============================================================

func TestReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithCRC(&buf)

	payloads := []string{"i42e", "d3:fooi1ee", "l4:spam\n4:eggse", ""}
	for i, p := range payloads {
		if err := w.WriteBencode(uint64(i+1), []byte(p), i == len(payloads)-1); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	frames, err := NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(frames) != len(payloads) {
		t.Fatalf("got %d frames, want %d", len(frames), len(payloads))
	}
	for i, f := range frames {
		if string(f.Payload) != payloads[i] {
			t.Errorf("frame %d payload = %q, want %q", i, f.Payload, payloads[i])
		}
		if f.Seq != uint64(i+1) || f.Kind != KindBencode {
			t.Errorf("frame %d: seq=%d kind=%s", i, f.Seq, f.Kind)
		}
		if f.Final != (i == len(payloads)-1) {
			t.Errorf("frame %d: final = %v", i, f.Final)
		}
		if len(payloads[i]) > 0 && !f.HasCRC() {
			t.Errorf("frame %d: missing CRC", i)
		}
	}
}

func TestReader_NoTrailingNewlineAtEOF(t *testing.T) {
	r := NewReader(strings.NewReader("@frame{v=1 seq=1 kind=bencode len=4}\ni42e"))
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(f.Payload) != "i42e" {
		t.Errorf("payload = %q", f.Payload)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReader_CRCMismatch(t *testing.T) {
	input := "@frame{v=1 seq=7 kind=bencode len=4 crc=00000000}\ni42e\n"

	_, err := NewReader(strings.NewReader(input)).Next()
	var crcErr *CRCMismatchError
	if !errors.As(err, &crcErr) {
		t.Fatalf("expected CRCMismatchError, got %v", err)
	}
	if crcErr.Seq != 7 || crcErr.Got != ComputeCRC([]byte("i42e")) {
		t.Errorf("unexpected error: %+v", crcErr)
	}

	// Verification can be turned off.
	f, err := NewReader(strings.NewReader(input), WithCRCVerification(false)).Next()
	if err != nil {
		t.Fatalf("Next without verification failed: %v", err)
	}
	if !f.HasCRC() || *f.CRC != 0 {
		t.Errorf("CRC not kept: %+v", f.CRC)
	}
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad prefix", "@frmae{v=1 seq=1 kind=bencode len=0}\n", "expected @frame{"},
		{"no closing brace", "@frame{v=1 seq=1 kind=bencode len=0\n", "missing closing }"},
		{"bad version", "@frame{v=2 seq=1 kind=bencode len=0}\n", "unsupported version"},
		{"bad seq", "@frame{v=1 seq=x kind=bencode len=0}\n", "invalid seq"},
		{"bad kind", "@frame{v=1 seq=1 kind=doc len=0}\n", "invalid kind"},
		{"missing kind", "@frame{v=1 seq=1 len=0}\n", "missing kind"},
		{"missing len", "@frame{v=1 seq=1 kind=bencode}\n", "missing len"},
		{"bad crc", "@frame{v=1 seq=1 kind=bencode len=0 crc=xyz}\n", "invalid crc"},
		{"truncated header", "@frame{v=1 seq=1", "truncated header"},
		{"truncated payload", "@frame{v=1 seq=1 kind=bencode len=10}\ni42e", "truncated payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).Next()
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if !strings.Contains(perr.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", perr.Error(), tt.want)
			}
		})
	}
}

func TestReader_MaxPayload(t *testing.T) {
	input := "@frame{v=1 seq=1 kind=bencode len=100}\n"
	_, err := NewReader(strings.NewReader(input), WithMaxPayload(10)).Next()
	var perr *ParseError
	if !errors.As(err, &perr) || !strings.Contains(perr.Reason, "payload too large") {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestReader_Offset(t *testing.T) {
	first := "@frame{v=1 seq=1 kind=bencode len=4}\ni42e\n"
	second := "@frame{v=1 seq=2 kind=bencode len=2}\nle\n"
	r := NewReader(strings.NewReader(first + second))

	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	if r.Offset() != int64(len(first)) {
		t.Errorf("offset = %d, want %d", r.Offset(), len(first))
	}
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	if r.Offset() != int64(len(first)+len(second)) {
		t.Errorf("offset = %d, want %d", r.Offset(), len(first)+len(second))
	}
}

// ============================================================
// Sequence Tests
// ============================================================

func TestSequence(t *testing.T) {
	var s Sequence
	if _, ok := s.Last(); ok {
		t.Fatal("fresh sequence should have no last frame")
	}
	for _, seq := range []uint64{5, 6, 7} {
		if err := s.Check(seq); err != nil {
			t.Fatalf("Check(%d): %v", seq, err)
		}
	}

	err := s.Check(7)
	var seqErr *SequenceError
	if !errors.As(err, &seqErr) || !seqErr.Duplicate() {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	err = s.Check(9)
	if !errors.As(err, &seqErr) || seqErr.Duplicate() {
		t.Fatalf("expected gap error, got %v", err)
	}
	if !strings.Contains(err.Error(), "expected 8, got 9") {
		t.Errorf("error = %v", err)
	}

	if last, _ := s.Last(); last != 7 {
		t.Errorf("last = %d, want 7", last)
	}
}

// ============================================================
// Transcoder Tests
// ============================================================

func TestTranscoder_Batch(t *testing.T) {
	var in bytes.Buffer
	w := NewWriter(&in)
	w.WriteBencode(1, []byte("d3:fooi42ee"), false)
	w.WriteBencode(2, []byte("i00e"), false)
	w.WriteBencode(3, []byte("l1:\xffe"), true)

	var out bytes.Buffer
	var seen []uint64
	tc := NewTranscoder(be2json.DefaultOptions())
	tc.OnFrame = func(seq uint64, err error) { seen = append(seen, seq) }

	if err := tc.Run(NewReader(&in), NewWriterWithCRC(&out)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	frames, err := NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}

	if frames[0].Kind != KindJSON || string(frames[0].Payload) != `{"foo":42}` {
		t.Errorf("frame 1 = %s %q", frames[0].Kind, frames[0].Payload)
	}
	if frames[1].Kind != KindErr || !strings.Contains(string(frames[1].Payload), "leading zero") {
		t.Errorf("frame 2 = %s %q", frames[1].Kind, frames[1].Payload)
	}
	if frames[2].Kind != KindJSON || string(frames[2].Payload) != `["<hex>ff</hex>"]` || !frames[2].Final {
		t.Errorf("frame 3 = %s %q final=%v", frames[2].Kind, frames[2].Payload, frames[2].Final)
	}
	for i, f := range frames {
		if f.Seq != uint64(i+1) {
			t.Errorf("frame %d seq = %d", i, f.Seq)
		}
	}

	stats := tc.Stats()
	want := Stats{Frames: 3, Converted: 2, Failed: 1, BytesIn: 11 + 4 + 5, BytesOut: 10 + 17, HexStrings: 1, MaxDepth: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if len(seen) != 3 {
		t.Errorf("OnFrame called %d times", len(seen))
	}
}

func TestTranscoder_SequenceGapStops(t *testing.T) {
	var in bytes.Buffer
	w := NewWriter(&in)
	w.WriteBencode(1, []byte("i1e"), false)
	w.WriteBencode(3, []byte("i3e"), false)

	var out bytes.Buffer
	tc := NewTranscoder(be2json.Options{})
	err := tc.Run(NewReader(&in), NewWriter(&out))

	var seqErr *SequenceError
	if !errors.As(err, &seqErr) {
		t.Fatalf("expected SequenceError, got %v", err)
	}
	if tc.Stats().Frames != 1 {
		t.Errorf("frames = %d, want 1", tc.Stats().Frames)
	}
}

func TestTranscoder_WrongKind(t *testing.T) {
	var in bytes.Buffer
	NewWriter(&in).WriteJSON(1, []byte("{}"), false)

	err := NewTranscoder(be2json.Options{}).Run(NewReader(&in), NewWriter(io.Discard))
	var perr *ParseError
	if !errors.As(err, &perr) || !strings.Contains(perr.Reason, "expected kind bencode") {
		t.Fatalf("expected kind error, got %v", err)
	}
}

func TestFrameKind_String(t *testing.T) {
	for _, k := range []FrameKind{KindBencode, KindJSON, KindErr} {
		parsed, ok := ParseKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), parsed, ok)
		}
	}
	if FrameKind(9).String() != "unknown(9)" {
		t.Errorf("got %q", FrameKind(9).String())
	}
}
