package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"
	oklogrun "github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Neumenon/be2json/server"
)

// serveCommand runs the HTTP conversion service.
type serveCommand struct {
	env *env
	cfg server.Config
}

func addServeCommand(app *kingpin.Application, e *env) {
	cmd := &serveCommand{env: e, cfg: server.DefaultConfig()}
	c := app.Command("serve", "Serve POST /convert, /metrics and /ready over HTTP.").Action(cmd.run)
	c.Flag("server.http-listen-address", "HTTP listen address.").
		Default(cmd.cfg.HTTPListenAddress).StringVar(&cmd.cfg.HTTPListenAddress)
	c.Flag("server.max-body-bytes", "Largest accepted request body, before and after decompression.").
		Default("67108864").Int64Var(&cmd.cfg.MaxBodyBytes)
	c.Flag("server.read-timeout", "HTTP read timeout.").
		Default(cmd.cfg.ReadTimeout.String()).DurationVar(&cmd.cfg.ReadTimeout)
	c.Flag("server.write-timeout", "HTTP write timeout.").
		Default(cmd.cfg.WriteTimeout.String()).DurationVar(&cmd.cfg.WriteTimeout)
	c.Flag("server.shutdown-timeout", "How long to wait for in-flight requests on shutdown.").
		Default(cmd.cfg.ShutdownTimeout.String()).DurationVar(&cmd.cfg.ShutdownTimeout)
	addEngineFlags(c, &cmd.cfg.Options)
}

func (cmd *serveCommand) run(*kingpin.ParseContext) error {
	logger := cmd.env.logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	srv := server.New(cmd.cfg, logger, reg, reg)

	var g oklogrun.Group
	g.Add(srv.Run, func(error) {
		if err := srv.Shutdown(); err != nil {
			level.Error(logger).Log("msg", "shutdown failed", "err", err)
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	g.Add(oklogrun.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	defer cancel()

	start := time.Now()
	err := g.Run()
	level.Info(logger).Log("msg", "server stopped", "uptime", time.Since(start))

	var sigErr oklogrun.SignalError
	if errors.As(err, &sigErr) {
		return nil
	}
	return err
}
