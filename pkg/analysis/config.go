// Package analysis runs batches of traces over a frozen model: boundary rays
// for clear apertures, transverse ray fans and wavefront (OPD) evaluation.
//
// Every batch starts from an updated model and never mutates it while traces
// are in flight, so the rays of a batch run concurrently.
package analysis

import (
	"log/slog"

	"github.com/df07/go-sequential-optics/pkg/trace"
)

// Config controls how batches are traced
type Config struct {
	Tolerance  float64      // intersection accuracy handed to the profiles
	Workers    int          // parallel tracers (0 = use CPU count)
	FanSamples int          // pupil samples per ray fan
	Logger     *slog.Logger // nil means slog.Default()
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Tolerance:  trace.DefaultTolerance,
		Workers:    0, // Auto-detect CPU count
		FanSamples: 21,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
