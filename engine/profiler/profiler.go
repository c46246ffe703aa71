package profiler

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is one reporting interval.
type Stats struct {
	FPS       float64
	Heap      uint64
	AllocRate uint64 // bytes per second
	GCCount   uint32
	LastPause time.Duration
	MaxPause  time.Duration
	Sys       uint64
}

// Profiler tracks tick rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	logger         *log.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: optional logger, interval and clock
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         log.New(os.Stdout, "[profiler] ", log.LstdFlags|log.Lmicroseconds),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per engine tick.
// Logs performance statistics when the update interval has elapsed: FPS, heap, allocation
// rate, GC count and pause times, and total memory obtained from the OS.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		Heap:      p.memStats.Alloc,
		AllocRate: uint64(float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / elapsed.Seconds()),
		GCCount:   p.memStats.NumGC,
		Sys:       p.memStats.Sys,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses
	if gcCount := s.GCCount; gcCount > 0 {
		s.LastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := time.Duration(p.memStats.PauseNs[i%256]); pause > s.MaxPause {
				s.MaxPause = pause
			}
		}
	}

	p.logger.Printf("FPS: %.2f | Heap: %s | Alloc Rate: %s/s | GC: %d (last: %s, max: %s) | Sys: %s",
		s.FPS, humanize.IBytes(s.Heap), humanize.IBytes(s.AllocRate), s.GCCount,
		s.LastPause, s.MaxPause, humanize.IBytes(s.Sys))

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = s
	return true
}

// Last returns the most recently logged interval.
func (p *Profiler) Last() Stats {
	return p.last
}
