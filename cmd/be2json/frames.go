package main

import (
	"bufio"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/Neumenon/be2json/be2json"
	"github.com/Neumenon/be2json/compression"
	"github.com/Neumenon/be2json/stream"
)

// framesCommand answers a framed batch of Bencode documents.
type framesCommand struct {
	env *env

	input, output       string
	inputEnc, outputEnc string
	withCRC             bool
	maxPayload          int
	opts                be2json.Options
}

func addFramesCommand(app *kingpin.Application, e *env) {
	cmd := &framesCommand{env: e}
	c := app.Command("frames", "Convert a stream of @frame{} wrapped Bencode documents, answering each with a json or err frame.").
		Action(cmd.run)
	c.Flag("input", "Input file, - for stdin.").Short('i').Default(stdio).StringVar(&cmd.input)
	c.Flag("output", "Output file, - for stdout.").Short('o').Default(stdio).StringVar(&cmd.output)
	c.Flag("input.compression", "Input compression: auto (by file extension), "+compression.SupportedEncoding()+".").
		Default("auto").StringVar(&cmd.inputEnc)
	c.Flag("output.compression", "Output compression: auto (by file extension), "+compression.SupportedEncoding()+".").
		Default("auto").StringVar(&cmd.outputEnc)
	c.Flag("crc", "Add a CRC-32 to every answer frame.").BoolVar(&cmd.withCRC)
	c.Flag("max-payload", "Largest accepted frame payload in bytes.").
		Default("67108864").IntVar(&cmd.maxPayload)
	addEngineFlags(c, &cmd.opts)
}

func (cmd *framesCommand) run(*kingpin.ParseContext) error {
	logger := cmd.env.logger()

	in, err := openInput(cmd.env, cmd.input, cmd.inputEnc)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := createOutput(cmd.env, cmd.output, cmd.outputEnc)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(out)

	var w *stream.Writer
	if cmd.withCRC {
		w = stream.NewWriterWithCRC(buf)
	} else {
		w = stream.NewWriter(buf)
	}
	r := stream.NewReader(in, stream.WithMaxPayload(cmd.maxPayload))

	tc := stream.NewTranscoder(cmd.opts)
	tc.OnFrame = func(seq uint64, err error) {
		if err != nil {
			level.Warn(logger).Log("msg", "frame failed to convert", "seq", seq, "err", err)
		}
	}

	runErr := tc.Run(r, w)
	if err := buf.Flush(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "flushing output")
	}
	if err := out.Close(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "closing output")
	}

	s := tc.Stats()
	level.Info(logger).Log("msg", "batch finished",
		"frames", s.Frames, "converted", s.Converted, "failed", s.Failed,
		"in", humanize.Bytes(uint64(s.BytesIn)), "out", humanize.Bytes(uint64(s.BytesOut)),
		"hex_strings", s.HexStrings, "max_depth", s.MaxDepth)

	if runErr != nil {
		return errors.Wrapf(runErr, "frame stream broken at offset %d", r.Offset())
	}
	return nil
}
