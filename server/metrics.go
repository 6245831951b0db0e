package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion outcomes recorded in the status label.
const (
	statusSuccess  = "success"
	statusInvalid  = "invalid"
	statusTooLarge = "too_large"
	statusError    = "error"
)

type metrics struct {
	conversions  *prometheus.CounterVec
	inputBytes   prometheus.Counter
	outputBytes  prometheus.Counter
	duration     prometheus.Histogram
	nestingDepth prometheus.Histogram
}

func newMetrics(r prometheus.Registerer) *metrics {
	return &metrics{
		conversions: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "be2json_conversions_total",
			Help: "Total number of conversion requests by outcome.",
		}, []string{"status"}),
		inputBytes: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "be2json_input_bytes_total",
			Help: "Total Bencode bytes consumed.",
		}),
		outputBytes: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "be2json_output_bytes_total",
			Help: "Total JSON bytes produced by successful conversions.",
		}),
		duration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "be2json_conversion_duration_seconds",
			Help:    "Time taken to convert a request body.",
			Buckets: prometheus.DefBuckets,
		}),
		nestingDepth: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "be2json_max_nesting_depth",
			Help:    "Deepest container nesting reached per conversion.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
	}
}
