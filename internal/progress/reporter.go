package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Options configures the progress reporter.
type Options struct {
	// TotalSize is the expected size in bytes. Zero means unknown; percent
	// and ETA are omitted in that case.
	TotalSize int64

	// Label identifies what is being downloaded (for display).
	Label string

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information for one stream.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	received   atomic.Int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	stopCh     chan struct{}
	doneCh     chan struct{}
	stopped    bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.startTime = time.Now()
	r.lastUpdate = r.startTime

	fmt.Fprintf(r.opts.Output, "[guardian] Downloading: %s\n", r.opts.Label)
	if r.opts.TotalSize > 0 {
		fmt.Fprintf(r.opts.Output, "[guardian] Total size: %s\n", humanize.IBytes(uint64(r.opts.TotalSize)))
	}

	go r.updateLoop()
}

// Add records n received bytes.
func (r *Reporter) Add(n int64) {
	r.received.Add(n)
}

// Received returns the number of bytes recorded so far.
func (r *Reporter) Received() int64 {
	return r.received.Load()
}

// Stop stops the progress reporter and prints the final status.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	now := time.Now()
	received := r.received.Load()

	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(received-r.lastBytes) / elapsed

	r.lastUpdate = now
	r.lastBytes = received

	if r.opts.TotalSize <= 0 {
		fmt.Fprintf(r.opts.Output, "\r[guardian] Progress: %s | Speed: %s/s    ",
			humanize.IBytes(uint64(received)),
			humanize.IBytes(uint64(speed)),
		)
		return
	}

	percent := float64(received) / float64(r.opts.TotalSize) * 100
	eta := "calculating..."
	if speed > 0 {
		remaining := float64(r.opts.TotalSize - received)
		eta = formatDuration(time.Duration(remaining / speed * float64(time.Second)))
	}

	fmt.Fprintf(r.opts.Output, "\r[guardian] Progress: %.1f%% | %s / %s | Speed: %s/s | ETA: %s    ",
		percent,
		humanize.IBytes(uint64(received)),
		humanize.IBytes(uint64(r.opts.TotalSize)),
		humanize.IBytes(uint64(speed)),
		eta,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	received := r.received.Load()
	duration := time.Since(r.startTime)
	avgSpeed := float64(received) / duration.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[guardian] Downloaded %s in %s (%s/s)    \n",
		humanize.IBytes(uint64(received)),
		formatDuration(duration),
		humanize.IBytes(uint64(avgSpeed)),
	)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
