package geocoder

import (
	"log/slog"
	"time"
)

type options struct {
	logger   *slog.Logger
	progress bool
	timeout  time.Duration
}

type Option interface {
	apply(*options)
}

type logger struct{ *slog.Logger }

func (l logger) apply(o *options) {
	o.logger = l.Logger
}

// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return logger{l}
}

type progress bool

func (p progress) apply(o *options) {
	o.progress = bool(p)
}

// WithProgress renders a progress bar while data files are read.
func WithProgress(enabled bool) Option {
	return progress(enabled)
}

type timeout time.Duration

func (t timeout) apply(o *options) {
	o.timeout = time.Duration(t)
}

// Default: 5s. Used by RemoteAirports.
func WithTimeout(d time.Duration) Option {
	return timeout(d)
}
