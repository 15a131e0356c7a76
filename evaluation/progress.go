package evaluation

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports evaluation progress to a writer.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	persisted      int
	skipped        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: number of sections selected for the run
// reportInterval: report progress every N sections
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.persisted = 0
	p.skipped = 0
	p.lastReported = 0
}

// Record counts one finished section. persisted is false for a section
// that every provider failed on.
func (p *ProgressTracker) Record(persisted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.current >= p.total {
		return
	}

	p.current++
	if persisted {
		p.persisted++
	} else {
		p.skipped++
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line. Unlike the interval reports it
// shows the sections actually finished, which is less than the total when
// the run was cancelled.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rEvaluated: %d/%d (%.1f%%) - %d persisted, %d skipped - %.2f sections/s",
		p.current, p.total, percentage, p.persisted, p.skipped, rate)
}
