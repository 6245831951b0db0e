package server

import (
	"time"

	"github.com/Neumenon/be2json/be2json"
)

// Config configures the conversion service.
type Config struct {
	HTTPListenAddress string
	MaxBodyBytes      int64 // limit on request bytes, before and after decompression
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration

	Options be2json.Options
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		HTTPListenAddress: ":8080",
		MaxBodyBytes:      64 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		Options:           be2json.DefaultOptions(),
	}
}
