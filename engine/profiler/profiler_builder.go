package profiler

import (
	"log/slog"
	"runtime"
	"strconv"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often Tick produces a report.
//
// Parameters:
//   - interval: the reporting interval, ignored if not positive
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogger sets the structured logger reports are written to.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithMemStatsReader replaces runtime.ReadMemStats.
func WithMemStatsReader(read func(*runtime.MemStats)) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.readMem = read
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
