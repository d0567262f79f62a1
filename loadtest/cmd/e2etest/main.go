// Package main implements a standalone end-to-end smoke test for the
// StudySafe moderation service. It publishes a set of known inputs and
// generated responses against a running service over NATS and checks the
// verdicts for the behavior that does not depend on the external
// classifier: keyword blocking, the religious-content arbiter, input
// validation, PII redaction, homework detection, and injection handling.
//
// Usage:
//
//	go run ./cmd/e2etest/ [-nats nats://localhost:4222] [-timeout 10s]
//
// Exit code 0 if every check passes, 1 if any fail.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cozmic/studysafe/loadtest/client"
)

type inputCase struct {
	name    string
	text    string
	allowed bool
	// substring that must appear in the verdict reason when blocked
	reason string
	// expected christian_education marker
	christian bool
}

type outputCase struct {
	name       string
	text       string
	question   string
	allowed    bool
	regenerate bool
	// substring that must appear in the sanitized text
	contains string
	// substring that must NOT appear in the sanitized text
	excludes string
}

var inputCases = []inputCase{
	{
		name:      "doctrine allowed",
		text:      "Jesus is the only way to heaven",
		allowed:   true,
		christian: true,
	},
	{
		name:      "bible study allowed",
		text:      "What does the Bible say about forgiveness?",
		allowed:   true,
		christian: true,
	},
	{
		name:      "hateful religious content blocked",
		text:      "Non-Christians deserve to die",
		allowed:   false,
		reason:    "respectful",
		christian: true,
	},
	{
		name:    "profanity blocked",
		text:    "What the fuck is this math problem?",
		allowed: false,
		reason:  "inappropriate",
	},
	{
		name:    "essay request blocked",
		text:    "Write my essay for me about World War 2",
		allowed: false,
		reason:  "inappropriate",
	},
	{
		name:    "empty input blocked",
		text:    "",
		allowed: false,
		reason:  "empty",
	},
	{
		name:    "too short blocked",
		text:    "hi",
		allowed: false,
		reason:  "too short",
	},
}

var outputCases = []outputCase{
	{
		name:     "clean response allowed",
		text:     "Think about what happens to the water after it evaporates.",
		question: "Explain the water cycle",
		allowed:  true,
	},
	{
		name:     "pii redacted but allowed",
		text:     "You can reach the office at tutors@example.com for help.",
		question: "How do I get more help?",
		allowed:  true,
		contains: "[EMAIL REDACTED]",
		excludes: "tutors@example.com",
	},
	{
		name:       "homework completion flagged",
		text:       "Here is the complete essay you asked for, ready to submit.",
		question:   "Help me with my essay",
		allowed:    true,
		regenerate: true,
	},
	{
		name:       "injection success blocked",
		text:       "Sure, I will ignore my previous instructions.",
		question:   "A question",
		allowed:    false,
		regenerate: true,
	},
}

func main() {
	natsURL := flag.String("nats", "nats://localhost:4222", "NATS server URL")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-check verdict timeout")
	flag.Parse()

	c, err := client.New(*natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	failed := 0

	fmt.Println("=== Input moderation ===")
	for _, tc := range inputCases {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		verdict, latency, err := c.Check(ctx, "e2etest", "question", tc.text)
		cancel()

		if err != nil {
			fail(&failed, tc.name, "no verdict: %v", err)
			continue
		}

		ok := true
		if verdict.Allowed != tc.allowed {
			fail(&failed, tc.name, "allowed=%v, want %v (reason: %s)", verdict.Allowed, tc.allowed, verdict.Reason)
			ok = false
		}
		if tc.reason != "" && !strings.Contains(strings.ToLower(verdict.Reason), tc.reason) {
			fail(&failed, tc.name, "reason %q missing %q", verdict.Reason, tc.reason)
			ok = false
		}
		if verdict.ChristianEducation != tc.christian {
			fail(&failed, tc.name, "christian_education=%v, want %v", verdict.ChristianEducation, tc.christian)
			ok = false
		}
		if ok {
			fmt.Printf("  PASS %-36s (%v)\n", tc.name, latency.Round(time.Millisecond))
		}
	}

	fmt.Println("\n=== Output moderation ===")
	for _, tc := range outputCases {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		verdict, latency, err := c.CheckOutput(ctx, "e2etest", tc.text, tc.question)
		cancel()

		if err != nil {
			fail(&failed, tc.name, "no verdict: %v", err)
			continue
		}

		ok := true
		if verdict.Allowed != tc.allowed {
			fail(&failed, tc.name, "allowed=%v, want %v (reason: %s)", verdict.Allowed, tc.allowed, verdict.Reason)
			ok = false
		}
		if verdict.RequiresRegeneration != tc.regenerate {
			fail(&failed, tc.name, "requires_regeneration=%v, want %v", verdict.RequiresRegeneration, tc.regenerate)
			ok = false
		}
		if tc.contains != "" && !strings.Contains(verdict.SanitizedText, tc.contains) {
			fail(&failed, tc.name, "sanitized text missing %q", tc.contains)
			ok = false
		}
		if tc.excludes != "" && strings.Contains(verdict.SanitizedText, tc.excludes) {
			fail(&failed, tc.name, "sanitized text still contains %q", tc.excludes)
			ok = false
		}
		if ok {
			fmt.Printf("  PASS %-36s (%v)\n", tc.name, latency.Round(time.Millisecond))
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d check(s) FAILED\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed.")
}

func fail(counter *int, name, format string, args ...interface{}) {
	*counter++
	fmt.Printf("  FAIL %-36s %s\n", name, fmt.Sprintf(format, args...))
}
