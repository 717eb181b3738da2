// Package metrics keeps in-process counters and latency distributions for the
// binder daemon. Nothing is exported to an external system; the numbers are
// served by the HTTP API.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

const defaultWindow = 4096

// Histogram keeps the most recent durations in a fixed-size ring and computes
// percentiles over them. Safe for concurrent use.
type Histogram struct {
	mu      sync.Mutex
	samples []float64 // milliseconds
	next    int
	full    bool
	total   uint64
}

// NewHistogram creates a histogram that remembers the last window samples.
func NewHistogram(window int) *Histogram {
	if window <= 0 {
		window = defaultWindow
	}
	return &Histogram{samples: make([]float64, window)}
}

// Record adds a sample, overwriting the oldest one once the window is full.
func (h *Histogram) Record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.next] = float64(d.Microseconds()) / 1000.0
	h.next++
	if h.next == len(h.samples) {
		h.next = 0
		h.full = true
	}
	h.total++
}

// LatencyStats summarizes a histogram window. Values are milliseconds.
type LatencyStats struct {
	Count uint64  `json:"count"` // samples ever recorded
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Stats computes the summary of the current window.
func (h *Histogram) Stats() LatencyStats {
	h.mu.Lock()
	n := h.next
	if h.full {
		n = len(h.samples)
	}
	sorted := make([]float64, n)
	copy(sorted, h.samples[:n])
	total := h.total
	h.mu.Unlock()

	stats := LatencyStats{Count: total}
	if n == 0 {
		return stats
	}
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	stats.Mean = sum / float64(n)
	stats.P50 = percentile(sorted, 50)
	stats.P95 = percentile(sorted, 95)
	stats.P99 = percentile(sorted, 99)
	stats.Min = sorted[0]
	stats.Max = sorted[n-1]
	return stats
}

// percentile interpolates linearly between the two closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}

// Reset forgets all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next = 0
	h.full = false
	h.total = 0
}
