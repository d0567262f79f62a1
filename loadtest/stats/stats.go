// Package stats provides a goroutine-safe metrics collector that aggregates
// performance data from multiple load test workers and prints a summary
// report with percentile distributions.
package stats

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Collector aggregates metrics from multiple load test workers. All methods
// are goroutine-safe and can be called concurrently from many worker
// goroutines.
type Collector struct {
	mu             sync.Mutex
	checkLatencies []time.Duration
	allowed        int
	blocked        int
	errors         int
	startTime      time.Time
	scraper        *Scraper
}

// NewCollector creates a new Collector with the start time set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetScraper attaches a Prometheus metrics scraper to this collector. When
// set, Report() will also print server-side metrics collected by the
// scraper.
func (c *Collector) SetScraper(s *Scraper) {
	c.mu.Lock()
	c.scraper = s
	c.mu.Unlock()
}

// AddVerdict records a completed moderation round trip with its latency
// and outcome.
func (c *Collector) AddVerdict(d time.Duration, allowed bool) {
	c.mu.Lock()
	c.checkLatencies = append(c.checkLatencies, d)
	if allowed {
		c.allowed++
	} else {
		c.blocked++
	}
	c.mu.Unlock()
}

// AddError increments the error counter.
func (c *Collector) AddError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// VerdictCount returns the current number of recorded verdicts.
func (c *Collector) VerdictCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowed + c.blocked
}

// ErrorCount returns the current number of recorded errors.
func (c *Collector) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

// Report prints a formatted summary of the collected metrics to stdout,
// including total duration, verdict and error counts, throughput, and the
// percentile distribution of check round-trip latencies.
func (c *Collector) Report() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.startTime)
	total := c.allowed + c.blocked

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:     %s\n", elapsed.Round(time.Second))
	fmt.Printf("Verdicts:     %d (allowed=%d blocked=%d)\n", total, c.allowed, c.blocked)
	fmt.Printf("Errors:       %d\n", c.errors)

	if total > 0 && elapsed > 0 {
		fmt.Printf("Throughput:   %.1f checks/s\n", float64(total)/elapsed.Seconds())
	}
	if total+c.errors > 0 {
		errorRate := float64(c.errors) / float64(total+c.errors) * 100
		fmt.Printf("Error rate:   %.2f%%\n", errorRate)
	}

	if len(c.checkLatencies) > 0 {
		fmt.Println("\n--- Check Latency ---")
		printPercentiles(c.checkLatencies)
	}

	if c.scraper != nil {
		c.scraper.Report()
	}

	fmt.Println()
}

// printPercentiles sorts the given durations and prints avg, p50, p95, p99,
// and max values along with the sample count.
func printPercentiles(durations []time.Duration) {
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	n := len(durations)
	p50 := durations[n/2]
	p95 := durations[int(math.Ceil(float64(n)*0.95))-1]
	p99 := durations[int(math.Ceil(float64(n)*0.99))-1]

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	avg := sum / time.Duration(n)

	fmt.Printf("  avg: %v  p50: %v  p95: %v  p99: %v  max: %v  (n=%d)\n",
		avg.Round(time.Microsecond),
		p50.Round(time.Microsecond),
		p95.Round(time.Microsecond),
		p99.Round(time.Microsecond),
		durations[n-1].Round(time.Microsecond),
		n,
	)
}
