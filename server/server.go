// Package server exposes the converter over HTTP.
package server

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Neumenon/be2json/be2json"
	"github.com/Neumenon/be2json/compression"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server serves POST /convert, GET /metrics and GET /ready.
type Server struct {
	cfg     Config
	logger  log.Logger
	metrics *metrics
	router  *mux.Router
	http    *http.Server
}

// New builds a server. Metrics are registered with reg and served from
// gatherer.
func New(cfg Config, logger log.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(reg),
		router:  mux.NewRouter(),
	}

	s.router.Handle("/convert", gziphandler.GzipHandler(http.HandlerFunc(s.convertHandler))).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.readyHandler).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         cfg.HTTPListenAddress,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	level.Info(s.logger).Log("msg", "server listening", "addr", s.cfg.HTTPListenAddress)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) readyHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}

// Diagnostic is the body of a 422 response.
type Diagnostic struct {
	Kind      string `json:"kind"`
	Context   string `json:"context"`
	Detail    string `json:"detail,omitempty"`
	InputPos  int64  `json:"input_pos"`
	OutputPos int64  `json:"output_pos"`
	Message   string `json:"message"`
}

func newDiagnostic(e *be2json.Error) Diagnostic {
	return Diagnostic{
		Kind:      e.Kind.String(),
		Context:   e.Context.String(),
		Detail:    e.Detail,
		InputPos:  e.Read.Pos,
		OutputPos: e.Write.Pos,
		Message:   e.Error(),
	}
}

func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := log.With(s.logger, "remote", r.RemoteAddr)

	enc, err := contentEncoding(r.Header.Get("Content-Encoding"))
	if err != nil {
		s.metrics.conversions.WithLabelValues(statusError).Inc()
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec, err := compression.NewReader(enc, body)
	if err != nil {
		s.fail(w, logger, err)
		return
	}
	defer dec.Close()
	in := http.MaxBytesReader(w, dec, s.cfg.MaxBodyBytes)

	var out bytes.Buffer
	conv := be2json.NewConverter(in, &out, s.cfg.Options)
	convErr := conv.Convert()
	stats := conv.Stats()

	s.metrics.duration.Observe(time.Since(start).Seconds())
	s.metrics.inputBytes.Add(float64(stats.BytesRead))

	if convErr != nil {
		s.fail(w, logger, convErr)
		return
	}

	s.metrics.conversions.WithLabelValues(statusSuccess).Inc()
	s.metrics.outputBytes.Add(float64(stats.BytesWritten))
	s.metrics.nestingDepth.Observe(float64(stats.MaxDepth))
	level.Debug(logger).Log("msg", "converted", "in", stats.BytesRead, "out", stats.BytesWritten,
		"hex_strings", stats.HexStrings, "depth", stats.MaxDepth, "duration", time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

// fail maps a conversion or decoding error to a response.
func (s *Server) fail(w http.ResponseWriter, logger log.Logger, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.metrics.conversions.WithLabelValues(statusTooLarge).Inc()
		level.Warn(logger).Log("msg", "request body too large", "limit", maxErr.Limit)
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var perr *be2json.Error
	if errors.As(err, &perr) && perr.Kind != be2json.ErrIO {
		s.metrics.conversions.WithLabelValues(statusInvalid).Inc()
		level.Debug(logger).Log("msg", "invalid bencode", "kind", perr.Kind, "context", perr.Context, "pos", perr.Read.Pos)

		body, merr := json.Marshal(newDiagnostic(perr))
		if merr != nil {
			http.Error(w, merr.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write(body)
		return
	}

	s.metrics.conversions.WithLabelValues(statusError).Inc()
	level.Warn(logger).Log("msg", "failed to read request body", "err", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// contentEncoding maps a Content-Encoding header to a codec.
func contentEncoding(h string) (compression.Encoding, error) {
	h = strings.ToLower(strings.TrimSpace(h))
	switch h {
	case "", "identity":
		return compression.EncNone, nil
	case "x-snappy-framed":
		return compression.EncSnappy, nil
	default:
		return compression.ParseEncoding(h)
	}
}
