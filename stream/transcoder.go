package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Neumenon/be2json/be2json"
)

// Stats aggregates a transcoded batch.
type Stats struct {
	Frames     int   // bencode frames read
	Converted  int   // answered with a json frame
	Failed     int   // answered with an err frame
	BytesIn    int64 // bencode payload bytes
	BytesOut   int64 // json payload bytes
	HexStrings int
	MaxDepth   int
}

// Transcoder converts a batch of bencode frames into json or err frames.
// Each document is converted independently, so one bad payload does not
// stop the batch. Framing errors and sequence errors do.
type Transcoder struct {
	opts  be2json.Options
	seq   Sequence
	stats Stats
	buf   bytes.Buffer

	// OnFrame, if set, is called after each answered frame with the
	// conversion error (nil on success).
	OnFrame func(seq uint64, err error)
}

// NewTranscoder creates a transcoder that converts payloads with opts.
func NewTranscoder(opts be2json.Options) *Transcoder {
	return &Transcoder{opts: opts}
}

// Run reads frames from r until EOF and answers each one on w.
func (t *Transcoder) Run(r *Reader, w *Writer) error {
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := t.Process(frame, w); err != nil {
			return err
		}
	}
}

// Process answers a single frame. It returns an error only for ordering or
// kind violations and for write failures.
func (t *Transcoder) Process(frame *Frame, w *Writer) error {
	if frame.Kind != KindBencode {
		return &ParseError{Reason: fmt.Sprintf("seq %d: expected kind bencode, got %s", frame.Seq, frame.Kind), Offset: -1}
	}
	if err := t.seq.Check(frame.Seq); err != nil {
		return err
	}

	t.stats.Frames++
	t.stats.BytesIn += int64(len(frame.Payload))

	t.buf.Reset()
	conv := be2json.NewConverter(bytes.NewReader(frame.Payload), &t.buf, t.opts)
	convErr := conv.Convert()
	cs := conv.Stats()
	if cs.MaxDepth > t.stats.MaxDepth {
		t.stats.MaxDepth = cs.MaxDepth
	}

	var werr error
	if convErr != nil {
		var perr *be2json.Error
		if !errors.As(convErr, &perr) {
			return convErr
		}
		t.stats.Failed++
		werr = w.WriteErr(frame.Seq, []byte(perr.Error()), frame.Final)
	} else {
		t.stats.Converted++
		t.stats.BytesOut += int64(t.buf.Len())
		t.stats.HexStrings += cs.HexStrings
		werr = w.WriteJSON(frame.Seq, t.buf.Bytes(), frame.Final)
	}
	if werr != nil {
		return werr
	}

	if t.OnFrame != nil {
		t.OnFrame(frame.Seq, convErr)
	}
	return nil
}

// Stats returns the counters for the frames processed so far.
func (t *Transcoder) Stats() Stats {
	return t.stats
}
