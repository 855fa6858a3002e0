// Package stats samples process resource usage and query throughput while a benchmark runs.
package stats

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

type RuntimeStats struct {
	StartTime    time.Time
	EndTime      time.Time
	TotalElapsed time.Duration
	Samples      []Sample
	Summary      Summary
}

type Sample struct {
	Elapsed time.Duration

	HeapAlloc       uint64
	Sys             uint64
	NumGC           uint32
	ProcessRSSBytes uint64

	CPUPercent   float64
	SystemCPU    []float64
	NumGoroutine int

	// Queries is the cumulative number of completed queries.
	Queries int64
	// QPS is the throughput since the previous sample.
	QPS float64
}

type Summary struct {
	PeakHeapAlloc  uint64
	PeakSys        uint64
	PeakProcessRSS uint64
	PeakCPUPercent float64
	AvgCPUPercent  float64
	PeakGoroutines int
	TotalGCCycles  uint32

	TotalQueries int64
	PeakQPS      float64
	AvgQPS       float64

	SampleCount    int
	SampleInterval time.Duration
}

// Collector samples runtime statistics until stopped.
type Collector struct {
	mu       sync.Mutex
	stats    RuntimeStats
	interval time.Duration
	queries  func() int64
	proc     *process.Process

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewCollector creates a collector, queries reports the number of completed queries
// and may be nil.
func NewCollector(interval time.Duration, queries func() int64) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}
	if queries == nil {
		queries = func() int64 { return 0 }
	}

	return &Collector{
		interval: interval,
		queries:  queries,
		proc:     proc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.stats.StartTime = time.Now()
	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stopChan:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s := Sample{
		Elapsed:      time.Since(c.stats.StartTime),
		HeapAlloc:    memStats.HeapAlloc,
		Sys:          memStats.Sys,
		NumGC:        memStats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
		Queries:      c.queries(),
	}
	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		s.ProcessRSSBytes = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = cpuPercent
	}
	if systemCPU, err := cpu.Percent(0, true); err == nil {
		s.SystemCPU = systemCPU
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.stats.Samples); n > 0 {
		prev := c.stats.Samples[n-1]
		if dt := (s.Elapsed - prev.Elapsed).Seconds(); dt > 0 {
			s.QPS = float64(s.Queries-prev.Queries) / dt
		}
	}
	c.stats.Samples = append(c.stats.Samples, s)
}

// Stop stops sampling and returns the collected statistics.
func (c *Collector) Stop() RuntimeStats {
	close(c.stopChan)
	<-c.doneChan

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.EndTime = time.Now()
	c.stats.TotalElapsed = c.stats.EndTime.Sub(c.stats.StartTime)
	c.stats.Summary = summarize(c.stats.Samples, c.stats.TotalElapsed)
	c.stats.Summary.SampleInterval = c.interval

	return c.stats
}

func summarize(samples []Sample, elapsed time.Duration) Summary {
	var sum Summary
	if len(samples) == 0 {
		return sum
	}

	var totalCPU float64
	for _, s := range samples {
		sum.PeakHeapAlloc = max(sum.PeakHeapAlloc, s.HeapAlloc)
		sum.PeakSys = max(sum.PeakSys, s.Sys)
		sum.PeakProcessRSS = max(sum.PeakProcessRSS, s.ProcessRSSBytes)
		sum.PeakCPUPercent = max(sum.PeakCPUPercent, s.CPUPercent)
		sum.PeakGoroutines = max(sum.PeakGoroutines, s.NumGoroutine)
		sum.TotalGCCycles = max(sum.TotalGCCycles, s.NumGC)
		sum.PeakQPS = max(sum.PeakQPS, s.QPS)
		totalCPU += s.CPUPercent
	}

	sum.SampleCount = len(samples)
	sum.AvgCPUPercent = totalCPU / float64(len(samples))
	sum.TotalQueries = samples[len(samples)-1].Queries
	if elapsed > 0 {
		sum.AvgQPS = float64(sum.TotalQueries) / elapsed.Seconds()
	}
	return sum
}

// maxReportSamples limits the sample table of a report, samples are picked evenly.
const maxReportSamples = 100

// WriteReport writes a human readable report.
func (stats *RuntimeStats) WriteReport(w io.Writer) error {
	sum := stats.Summary
	p := &reportWriter{w: w}

	p.printf("RUNTIME STATISTICS\n")
	p.printf("  Start:            %s\n", stats.StartTime.Format(time.RFC3339))
	p.printf("  Duration:         %s\n", stats.TotalElapsed.Round(time.Millisecond))
	p.printf("  Samples:          %d every %s\n\n", sum.SampleCount, sum.SampleInterval)

	p.printf("QUERIES\n")
	p.printf("  Total:            %s\n", humanize.Comma(sum.TotalQueries))
	p.printf("  Average:          %s/s\n", humanize.CommafWithDigits(sum.AvgQPS, 1))
	p.printf("  Peak:             %s/s\n\n", humanize.CommafWithDigits(sum.PeakQPS, 1))

	p.printf("MEMORY (peak)\n")
	p.printf("  Heap allocated:   %s\n", humanize.IBytes(sum.PeakHeapAlloc))
	p.printf("  System:           %s\n", humanize.IBytes(sum.PeakSys))
	p.printf("  Process RSS:      %s\n\n", humanize.IBytes(sum.PeakProcessRSS))

	p.printf("CPU\n")
	p.printf("  Peak:             %.2f%%\n", sum.PeakCPUPercent)
	p.printf("  Average:          %.2f%%\n", sum.AvgCPUPercent)
	p.printf("  Peak goroutines:  %d\n", sum.PeakGoroutines)
	p.printf("  GC cycles:        %d\n\n", sum.TotalGCCycles)

	samples := stats.Samples
	if len(samples) > maxReportSamples {
		picked := make([]Sample, 0, maxReportSamples)
		step := float64(len(samples)-1) / float64(maxReportSamples-1)
		for i := range maxReportSamples {
			picked = append(picked, samples[int(float64(i)*step)])
		}
		p.printf("(showing %d of %d samples)\n", maxReportSamples, len(samples))
		samples = picked
	}

	p.printf("%-10s %-12s %-12s %-12s %-8s %-12s\n", "Elapsed", "Heap", "RSS", "Sys", "CPU %", "QPS")
	for _, s := range samples {
		p.printf("%-10s %-12s %-12s %-12s %-8.1f %-12s\n",
			s.Elapsed.Round(100*time.Millisecond),
			humanize.IBytes(s.HeapAlloc),
			humanize.IBytes(s.ProcessRSSBytes),
			humanize.IBytes(s.Sys),
			s.CPUPercent,
			humanize.CommafWithDigits(s.QPS, 0),
		)
	}

	return p.err
}

// SaveToFile writes the report to filename.
func (stats *RuntimeStats) SaveToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create stats file: %w", err)
	}
	if err := stats.WriteReport(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return f.Close()
}

type reportWriter struct {
	w   io.Writer
	err error
}

func (p *reportWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
