package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/orbitview/engine/frame"
)

// Report is one interval's worth of statistics.
type Report struct {
	// FPS counts frames that reached the GPU, skipped frames excluded.
	FPS float64

	Produced   uint64
	Skipped    uint64
	FenceWaits uint64

	// AvgFenceWait is the mean time BeginFrame blocked on a busy slot.
	AvgFenceWait time.Duration

	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// LogValue groups the report under one slog attribute.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("fps", formatFloat(r.FPS)),
		slog.Uint64("produced", r.Produced),
		slog.Uint64("skipped", r.Skipped),
		slog.Uint64("fence_waits", r.FenceWaits),
		slog.Duration("avg_fence_wait", r.AvgFenceWait),
		slog.String("heap_mb", formatFloat(r.HeapMB)),
		slog.String("alloc_rate_mb_s", formatFloat(r.AllocRateMB)),
		slog.Any("gc", r.GCCount),
		slog.Uint64("gc_last_us", r.LastPauseUs),
		slog.Uint64("gc_max_us", r.MaxPauseUs),
		slog.String("sys_mb", formatFloat(r.SysMB)),
	)
}

// Profiler tracks frame pipeline and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Time
	readMem        func(*runtime.MemStats)
	updateInterval time.Duration

	lastTime       time.Time
	last           frame.Stats
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		now:            time.Now,
		readMem:        runtime.ReadMemStats,
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per loop iteration with the pipeline's cumulative counters.
// Logs a Report when the update interval has elapsed.
//
// Parameters:
//   - stats: the frame pipeline's current Stats
//
// Returns:
//   - Report: the statistics of the elapsed interval, zero if none was produced
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats frame.Stats) (Report, bool) {
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return Report{}, false
	}

	r := Report{
		Produced:   stats.Produced - p.last.Produced,
		Skipped:    stats.Skipped - p.last.Skipped,
		FenceWaits: stats.FenceWaits - p.last.FenceWaits,
	}
	r.FPS = float64(r.Produced) / elapsed.Seconds()
	if r.FenceWaits > 0 {
		r.AvgFenceWait = (stats.FenceWaitTime - p.last.FenceWaitTime) / time.Duration(r.FenceWaits)
	}

	p.readMem(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint.
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("profiler", slog.Any("stats", r))

	p.lastTime = currentTime
	p.last = stats
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r, true
}

// Reset starts a new interval from stats, discarding the partial one.
//
// Parameters:
//   - stats: the frame pipeline's current Stats
func (p *Profiler) Reset(stats frame.Stats) {
	p.lastTime = p.now()
	p.last = stats
}
