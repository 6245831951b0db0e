// be2json converts Bencode to JSON.
//
// Usage:
//
//	be2json [convert] [-i in.torrent] [-o out.json] [flags]
//	be2json frames [-i batch] [-o answers]
//	be2json serve [--server.http-listen-address=:8080]
//	be2json version
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Version is set at build time.
var Version = "dev"

// errReported means the failure was already printed.
var errReported = errors.New("failure reported")

// env is what a command may touch outside its flags.
type env struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logLevel string
}

func (e *env) logger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(e.stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, levelOption(e.logLevel))
}

func levelOption(l string) level.Option {
	switch l {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func main() {
	e := &env{
		fs:     afero.NewOsFs(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	os.Exit(run(os.Args[1:], e, os.Exit))
}

// run parses args, executes the selected command and returns the exit
// status. terminate is called by kingpin after --help and --version; nil
// disables it.
func run(args []string, e *env, terminate func(int)) int {
	app := kingpin.New("be2json", "Convert Bencode to JSON in a single streaming pass.")
	app.Version(Version)
	app.UsageWriter(e.stderr)
	app.ErrorWriter(e.stderr)
	app.Terminate(terminate)
	app.DefaultEnvars()
	app.Flag("log.level", "Only log messages with the given severity or above.").
		Default("info").EnumVar(&e.logLevel, "debug", "info", "warn", "error")

	addConvertCommand(app, e)
	addFramesCommand(app, e)
	addServeCommand(app, e)
	addVersionCommand(app, e)

	if _, err := app.Parse(args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(e.stderr, "be2json: %v\n", err)
		}
		return 1
	}
	return 0
}

func addVersionCommand(app *kingpin.Application, e *env) {
	app.Command("version", "Print the version.").Action(func(*kingpin.ParseContext) error {
		fmt.Fprintf(e.stdout, "be2json version %s\n", Version)
		return nil
	})
}
