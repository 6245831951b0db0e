package main

import (
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/Neumenon/be2json/be2json"
	"github.com/Neumenon/be2json/compression"
)

const stdio = "-"

// addEngineFlags binds converter options shared by every command.
func addEngineFlags(cmd *kingpin.CmdClause, opts *be2json.Options) {
	cmd.Flag("max-depth", "Maximum nesting depth of lists and dictionaries.").
		Envar("BE2JSON_MAX_DEPTH").Default(fmt.Sprint(be2json.DefaultMaxDepth)).IntVar(&opts.MaxDepth)
	cmd.Flag("max-string-length", "Largest accepted string length in bytes; negative for no limit.").
		Envar("BE2JSON_MAX_STRING_LENGTH").Default(fmt.Sprint(be2json.DefaultMaxStringLength)).Int64Var(&opts.MaxStringLength)
	cmd.Flag("window-size", "Trailing input and output bytes shown in diagnostics; negative to disable.").
		Envar("BE2JSON_WINDOW_SIZE").Default(fmt.Sprint(be2json.DefaultWindowSize)).IntVar(&opts.WindowSize)
	cmd.Flag("escape-control", "Escape control characters in strings for strict JSON consumers.").
		Envar("BE2JSON_ESCAPE_CONTROL").BoolVar(&opts.EscapeControl)
}

// convertCommand converts one Bencode document.
type convertCommand struct {
	env *env

	input, output       string
	inputEnc, outputEnc string
	opts                be2json.Options
	printStats          bool
}

func addConvertCommand(app *kingpin.Application, e *env) {
	cmd := &convertCommand{env: e}
	c := app.Command("convert", "Convert one Bencode document to JSON.").Default().Action(cmd.run)
	c.Flag("input", "Input file, - for stdin.").Short('i').Default(stdio).StringVar(&cmd.input)
	c.Flag("output", "Output file, - for stdout.").Short('o').Default(stdio).StringVar(&cmd.output)
	c.Flag("input.compression", "Input compression: auto (by file extension), "+compression.SupportedEncoding()+".").
		Default("auto").StringVar(&cmd.inputEnc)
	c.Flag("output.compression", "Output compression: auto (by file extension), "+compression.SupportedEncoding()+".").
		Default("auto").StringVar(&cmd.outputEnc)
	c.Flag("stats", "Print conversion statistics to stderr.").BoolVar(&cmd.printStats)
	addEngineFlags(c, &cmd.opts)
}

func (cmd *convertCommand) run(*kingpin.ParseContext) error {
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

	conv := be2json.NewConverter(in, out, cmd.opts)
	convErr := conv.Convert()
	if err := out.Close(); err != nil && convErr == nil {
		return errors.Wrap(err, "closing output")
	}

	stats := conv.Stats()
	level.Debug(logger).Log("msg", "conversion finished", "input", cmd.input, "output", cmd.output,
		"bytes_read", stats.BytesRead, "bytes_written", stats.BytesWritten)

	if convErr != nil {
		reportError(cmd.env.stderr, cmd.input, convErr)
		return errReported
	}
	if cmd.printStats {
		writeStats(cmd.env.stderr, stats)
	}
	return nil
}

// reportError prints a conversion diagnostic. The kind line is highlighted,
// the full message with the byte windows follows.
func reportError(w io.Writer, source string, err error) {
	var perr *be2json.Error
	if !errors.As(err, &perr) {
		color.New(color.FgRed, color.Bold).Fprintf(w, "error: %v\n", err)
		return
	}
	if source == stdio {
		source = "<stdin>"
	}
	color.New(color.FgRed, color.Bold).Fprintf(w, "error: %s parsing %s at %s:%d\n",
		perr.Kind, perr.Context, source, perr.Read.Pos)
	if perr.Detail != "" {
		fmt.Fprintf(w, "  %s\n", perr.Detail)
	}
	if perr.Err != nil {
		fmt.Fprintf(w, "  cause: %v\n", perr.Err)
	}
	fmt.Fprintf(w, "  %s\n  %s\n", perr.Read, perr.Write)
}

func writeStats(w io.Writer, s be2json.Stats) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "Conversion:")
	fmt.Fprintf(w, "\tread: %v, written: %v\n",
		humanize.Bytes(uint64(s.BytesRead)), humanize.Bytes(uint64(s.BytesWritten)))
	fmt.Fprintf(w, "\tintegers: %s, strings: %s (%s hex), lists: %s, dictionaries: %s, max depth: %d\n",
		humanize.Comma(int64(s.Integers)), humanize.Comma(int64(s.Strings)), humanize.Comma(int64(s.HexStrings)),
		humanize.Comma(int64(s.Lists)), humanize.Comma(int64(s.Dicts)), s.MaxDepth)
}

// ============================================================
// Input and output
// ============================================================

func resolveEncoding(name, enc string) (compression.Encoding, error) {
	if enc == "auto" {
		if name == stdio {
			return compression.EncNone, nil
		}
		return compression.FromPath(name), nil
	}
	return compression.ParseEncoding(enc)
}

// closeAll closes in order and returns the first error.
type closeAll []io.Closer

func (cs closeAll) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type readCloser struct {
	io.Reader
	closeAll
}

type writeCloser struct {
	io.Writer
	closeAll
}

// openInput opens name (or stdin) and wraps it in the decompressor.
func openInput(e *env, name, enc string) (io.ReadCloser, error) {
	encoding, err := resolveEncoding(name, enc)
	if err != nil {
		return nil, err
	}

	var src io.Reader = e.stdin
	var closers closeAll
	if name != stdio {
		f, err := e.fs.Open(name)
		if err != nil {
			return nil, errors.Wrapf(err, "opening input %s", name)
		}
		src = f
		closers = append(closers, f)
	}

	dec, err := compression.NewReader(encoding, src)
	if err != nil {
		closers.Close()
		return nil, errors.Wrapf(err, "reading input %s", name)
	}
	// The decoder closes first so it releases before the file does.
	return readCloser{Reader: dec, closeAll: append(closeAll{dec}, closers...)}, nil
}

// createOutput creates name (or uses stdout) behind the compressor.
func createOutput(e *env, name, enc string) (io.WriteCloser, error) {
	encoding, err := resolveEncoding(name, enc)
	if err != nil {
		return nil, err
	}

	var dst io.Writer = e.stdout
	var closers closeAll
	if name != stdio {
		f, err := e.fs.Create(name)
		if err != nil {
			return nil, errors.Wrapf(err, "creating output %s", name)
		}
		dst = f
		closers = append(closers, f)
	}

	cw, err := compression.NewWriter(encoding, dst)
	if err != nil {
		closers.Close()
		return nil, errors.Wrapf(err, "writing output %s", name)
	}
	return writeCloser{Writer: cw, closeAll: append(closeAll{cw}, closers...)}, nil
}
