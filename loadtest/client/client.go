// Package client provides a reusable NATS load test client for the
// StudySafe moderation service. It publishes moderation checks on the
// same subjects the service subscribes to, waits for the per-request
// verdict, and tracks per-client performance metrics.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
)

// Moderation subjects (local equivalents of the service's messaging
// constants).
const (
	SubjectModerationCheck  = "moderation.check"
	SubjectModerationResult = "moderation.result" // + .<request_id>
	SubjectOutputCheck      = "moderation.output.check"
	SubjectOutputResult     = "moderation.output.result" // + .<request_id>
)

// CheckRequest is the wire form of an input moderation check.
type CheckRequest struct {
	RequestID   string `json:"request_id"`
	RequesterID string `json:"requester_id,omitempty"`
	Context     string `json:"context,omitempty"`
	Text        string `json:"text"`
}

// OutputCheckRequest is the wire form of an output moderation check.
type OutputCheckRequest struct {
	RequestID        string `json:"request_id"`
	RequesterID      string `json:"requester_id,omitempty"`
	Text             string `json:"text"`
	OriginalQuestion string `json:"original_question,omitempty"`
}

// Verdict is the subset of the service's verdict fields the load test
// inspects.
type Verdict struct {
	RequestID            string `json:"request_id"`
	Allowed              bool   `json:"allowed"`
	Flagged              bool   `json:"flagged"`
	SanitizedText        string `json:"sanitized_text"`
	Reason               string `json:"reason,omitempty"`
	Severity             string `json:"severity"`
	Warning              string `json:"warning,omitempty"`
	ChristianEducation   bool   `json:"christian_education"`
	RequiresRegeneration bool   `json:"requires_regeneration"`
}

// Metrics tracks per-client performance data.
type Metrics struct {
	ConnectLatency time.Duration
	ChecksSent     int
	VerdictsSeen   int
	Errors         int
}

// Client represents a single simulated caller of the moderation service.
type Client struct {
	conn    *nats.Conn
	mu      sync.Mutex
	metrics Metrics
}

// New creates a load test client connected to the given NATS URL.
func New(url string) (*Client, error) {
	start := time.Now()
	conn, err := nats.Connect(url, nats.Name("studysafe-loadtest"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	c := &Client{conn: conn}
	c.metrics.ConnectLatency = time.Since(start)
	return c, nil
}

// Check publishes an input moderation request and waits for its verdict
// or the context deadline. The returned duration is the round trip from
// publish to verdict.
func (c *Client) Check(ctx context.Context, requesterID, contextTag, text string) (Verdict, time.Duration, error) {
	req := CheckRequest{
		RequestID:   nuid.Next(),
		RequesterID: requesterID,
		Context:     contextTag,
		Text:        text,
	}
	return c.roundTrip(ctx, SubjectModerationCheck, SubjectModerationResult+"."+req.RequestID, req)
}

// CheckOutput publishes an output moderation request and waits for its
// verdict.
func (c *Client) CheckOutput(ctx context.Context, requesterID, text, originalQuestion string) (Verdict, time.Duration, error) {
	req := OutputCheckRequest{
		RequestID:        nuid.Next(),
		RequesterID:      requesterID,
		Text:             text,
		OriginalQuestion: originalQuestion,
	}
	return c.roundTrip(ctx, SubjectOutputCheck, SubjectOutputResult+"."+req.RequestID, req)
}

func (c *Client) roundTrip(ctx context.Context, checkSubject, resultSubject string, req interface{}) (Verdict, time.Duration, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, 0, fmt.Errorf("marshal: %w", err)
	}

	// Subscribe before publishing so the verdict cannot race past us.
	sub, err := c.conn.SubscribeSync(resultSubject)
	if err != nil {
		c.addError()
		return Verdict{}, 0, fmt.Errorf("subscribe %s: %w", resultSubject, err)
	}
	defer sub.Unsubscribe()

	start := time.Now()
	if err := c.conn.Publish(checkSubject, data); err != nil {
		c.addError()
		return Verdict{}, 0, fmt.Errorf("publish %s: %w", checkSubject, err)
	}
	c.addSent()

	msg, err := sub.NextMsgWithContext(ctx)
	if err != nil {
		c.addError()
		return Verdict{}, 0, fmt.Errorf("await verdict: %w", err)
	}
	latency := time.Since(start)

	var verdict Verdict
	if err := json.Unmarshal(msg.Data, &verdict); err != nil {
		c.addError()
		return Verdict{}, latency, fmt.Errorf("unmarshal verdict: %w", err)
	}
	c.addSeen()

	return verdict, latency, nil
}

// Close closes the NATS connection.
func (c *Client) Close() {
	c.conn.Close()
}

// GetMetrics returns a copy of the client's metrics.
func (c *Client) GetMetrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

func (c *Client) addSent() {
	c.mu.Lock()
	c.metrics.ChecksSent++
	c.mu.Unlock()
}

func (c *Client) addSeen() {
	c.mu.Lock()
	c.metrics.VerdictsSeen++
	c.mu.Unlock()
}

func (c *Client) addError() {
	c.mu.Lock()
	c.metrics.Errors++
	c.mu.Unlock()
}
