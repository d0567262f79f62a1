package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/cozmic/studysafe/loadtest/client"
)

// responseSample pairs a generated response with the question that
// produced it, mirroring the real call shape of the output pipeline.
type responseSample struct {
	text     string
	question string
}

// responseCorpus exercises the output pipeline's branches: clean tutoring
// responses, PII leaks, and homework-shaped answers.
var responseCorpus = []responseSample{
	{
		text:     "Great question! Photosynthesis happens in two stages. Let's walk through the first one together.",
		question: "Explain photosynthesis",
	},
	{
		text:     "Think about what happens to the water after it evaporates. Where does it go next?",
		question: "Explain the water cycle",
	},
	{
		text:     "You can reach the tutoring office at tutors@example.com for extra sessions.",
		question: "How do I get more help?",
	},
	{
		text:     "Here is the complete essay you asked for, ready to submit.",
		question: "Help me with my essay",
	},
	{
		text:     "The quadratic formula solves any equation of the form ax^2 + bx + c = 0. Try applying it to yours.",
		question: "How do I solve quadratic equations?",
	},
}

// runOutputs implements the output moderation throughput test using the
// shared worker pool from the questions scenario.
func runOutputs(args []string) {
	fs := flag.NewFlagSet("outputs", flag.ExitOnError)
	natsURL := fs.String("nats", "nats://localhost:4222", "NATS server URL")
	workers := fs.Int("workers", 10, "Number of concurrent workers")
	duration := fs.Duration("duration", 30*time.Second, "Test duration")
	rate := fs.Int("rate", 0, "Target checks/s across all workers (0 = unthrottled)")
	timeout := fs.Duration("timeout", 10*time.Second, "Per-check verdict timeout")
	metricsURL := fs.String("metrics", "", "Service metrics URL to scrape (optional)")
	fs.Parse(args)

	fmt.Printf("Outputs test: %d workers against %s for %s\n", *workers, *natsURL, *duration)

	runLoadTest(*natsURL, *workers, *duration, *rate, *timeout, *metricsURL,
		func(ctx context.Context, c *client.Client, workerID, seq int) (client.Verdict, time.Duration, error) {
			sample := responseCorpus[seq%len(responseCorpus)]
			requester := fmt.Sprintf("loadtest-%d", workerID)
			return c.CheckOutput(ctx, requester, sample.text, sample.question)
		})
}
