package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cozmic/studysafe/loadtest/client"
	"github.com/cozmic/studysafe/loadtest/stats"
)

// questionCorpus is a mixed bag of student questions that exercises every
// moderation path: general educational content, Christian educational
// content, keyword-blocked content, and invalid input.
var questionCorpus = []string{
	"Explain photosynthesis in simple terms",
	"What does the Bible say about forgiveness?",
	"Help me understand the causes of World War 1",
	"Jesus is the only way to heaven",
	"How do I solve quadratic equations?",
	"How does prayer work in the Christian faith?",
	"Explain the water cycle step by step",
	"Write my essay for me about the Roman empire",
	"What is the difference between mitosis and meiosis?",
	"Why did the apostle Paul write so many letters?",
	"hi",
	"Give me a study plan for my algebra exam",
}

// runQuestions implements the input moderation throughput test. A pool of
// workers publishes questions from the corpus and waits for each verdict,
// measuring round-trip latency until the test duration elapses.
func runQuestions(args []string) {
	fs := flag.NewFlagSet("questions", flag.ExitOnError)
	natsURL := fs.String("nats", "nats://localhost:4222", "NATS server URL")
	workers := fs.Int("workers", 10, "Number of concurrent workers")
	duration := fs.Duration("duration", 30*time.Second, "Test duration")
	rate := fs.Int("rate", 0, "Target checks/s across all workers (0 = unthrottled)")
	timeout := fs.Duration("timeout", 10*time.Second, "Per-check verdict timeout")
	metricsURL := fs.String("metrics", "", "Service metrics URL to scrape (optional)")
	fs.Parse(args)

	fmt.Printf("Questions test: %d workers against %s for %s\n", *workers, *natsURL, *duration)

	runLoadTest(*natsURL, *workers, *duration, *rate, *timeout, *metricsURL,
		func(ctx context.Context, c *client.Client, workerID, seq int) (client.Verdict, time.Duration, error) {
			text := questionCorpus[seq%len(questionCorpus)]
			requester := fmt.Sprintf("loadtest-%d", workerID)
			return c.Check(ctx, requester, "question", text)
		})
}

// runLoadTest drives the shared worker pool for both scenarios. Each
// worker owns one NATS connection and issues checks back to back (or at
// the throttled rate) until the duration elapses or the test is
// interrupted.
func runLoadTest(natsURL string, workers int, duration time.Duration, rate int,
	timeout time.Duration, metricsURL string,
	check func(ctx context.Context, c *client.Client, workerID, seq int) (client.Verdict, time.Duration, error)) {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()

	if metricsURL != "" {
		scraper := stats.NewScraper(metricsURL, 5*time.Second)
		scraper.Start(ctx)
		defer scraper.Stop()
		collector.SetScraper(scraper)
	}

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	// Per-worker pacing interval when a target rate is set.
	var interval time.Duration
	if rate > 0 {
		interval = time.Duration(workers) * time.Second / time.Duration(rate)
	}

	// Progress reporting every 5 seconds.
	progressStop := make(chan struct{})
	var progressWg sync.WaitGroup
	progressWg.Add(1)
	go func() {
		defer progressWg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fmt.Printf("  verdicts: %d  errors: %d\n",
					collector.VerdictCount(), collector.ErrorCount())
			case <-progressStop:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			c, err := client.New(natsURL)
			if err != nil {
				fmt.Printf("worker %d: %v\n", workerID, err)
				collector.AddError()
				return
			}
			defer c.Close()

			var ticker *time.Ticker
			if interval > 0 {
				ticker = time.NewTicker(interval)
				defer ticker.Stop()
			}

			for seq := 0; ; seq++ {
				if ticker != nil {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
					}
				} else if runCtx.Err() != nil {
					return
				}

				checkCtx, checkCancel := context.WithTimeout(runCtx, timeout)
				verdict, latency, err := check(checkCtx, c, workerID, seq)
				checkCancel()

				if err != nil {
					if runCtx.Err() != nil {
						return
					}
					collector.AddError()
					continue
				}
				collector.AddVerdict(latency, verdict.Allowed)
			}
		}(w)
	}

	wg.Wait()
	close(progressStop)
	progressWg.Wait()

	collector.Report()
}
