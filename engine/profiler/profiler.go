package profiler

import (
	"log"
	"runtime"
	"time"
)

// Report holds the statistics gathered over one profiler interval.
type Report struct {
	// TicksPerSecond is the host tick rate measured over the interval.
	TicksPerSecond float64

	// MeanCost is the average time spent inside the tick callback.
	MeanCost time.Duration

	// MaxCost is the slowest tick callback of the interval.
	MaxCost time.Duration

	// HeapMB is the live heap at the end of the interval.
	HeapMB float64

	// AllocRateMB is the heap allocation rate in MB/s over the interval.
	AllocRateMB float64

	// GCCount is the cumulative number of completed GC cycles.
	GCCount uint32
}

// Profiler tracks tick rate, tick cost and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	tickCount      int
	totalCost      time.Duration
	maxCost        time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	last           Report
	quiet          bool
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// SetInterval changes how often statistics are reported. Values <= 0 report on every tick.
func (p *Profiler) SetInterval(d time.Duration) {
	p.updateInterval = d
}

// SetQuiet suppresses log output while still collecting reports.
func (p *Profiler) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// Last returns the most recent report.
func (p *Profiler) Last() Report {
	return p.last
}

// Tick should be called once per host tick with the time spent in the tick callback.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - cost: how long the tick callback took
//
// Returns:
//   - bool: true if stats were reported this tick, false otherwise
func (p *Profiler) Tick(cost time.Duration) bool {
	p.tickCount++
	p.totalCost += cost
	if cost > p.maxCost {
		p.maxCost = cost
	}

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1e-9
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	p.last = Report{
		TicksPerSecond: float64(p.tickCount) / seconds,
		MeanCost:       p.totalCost / time.Duration(p.tickCount),
		MaxCost:        p.maxCost,
		HeapMB:         float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:    float64(allocDelta) / 1024 / 1024 / seconds,
		GCCount:        p.memStats.NumGC,
	}

	if !p.quiet {
		log.Printf("[Profiler] Ticks: %.2f/s | Evaluate: mean %s, max %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d",
			p.last.TicksPerSecond, p.last.MeanCost, p.last.MaxCost, p.last.HeapMB, p.last.AllocRateMB, p.last.GCCount)
	}

	p.tickCount = 0
	p.totalCost = 0
	p.maxCost = 0
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
