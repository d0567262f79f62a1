// Package suspend provides temporary requester suspensions backed by
// Redis. A suspension is a key-value pair with TTL-based expiry:
//
//	Key:   suspend:<requester_id>
//	Value: <reason>
//	TTL:   suspension duration
//
// Suspensions are driven by strikes: each high-severity blocked verdict
// records a strike, and crossing the strike threshold within the strike
// window suspends the requester for an escalating duration.
package suspend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SuspendPrefix is the Redis key prefix for suspension records.
	SuspendPrefix = "suspend:"

	// StrikesPrefix is the Redis key prefix for strike counters.
	StrikesPrefix = "strikes:"

	// Escalating suspension durations.
	Suspend15Min  = 15 * time.Minute // first suspension
	Suspend1Hour  = 1 * time.Hour    // second suspension
	Suspend24Hour = 24 * time.Hour   // third and later

	// StrikesTTL is how long the strike counter lives in Redis. After
	// 24h without new strikes the counter resets to zero.
	StrikesTTL = 24 * time.Hour

	// StrikeThreshold is the number of strikes within StrikesTTL that
	// triggers an automatic suspension.
	StrikeThreshold = 3
)

// Store manages suspension records in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a new suspension store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Status checks whether a requester is currently suspended. If not,
// suspended is false and the other return values are zero/empty. Redis
// errors are returned so callers can decide how to handle them (the
// recommended policy is fail-open: an outage must not lock students out).
func (s *Store) Status(ctx context.Context, requesterID string) (suspended bool, remaining time.Duration, reason string, err error) {
	key := SuspendPrefix + requesterID

	reason, err = s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, 0, "", nil
	}
	if err != nil {
		return false, 0, "", err
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		// The suspension exists but the TTL read failed. Report suspended
		// with 0 remaining rather than swallowing the suspension.
		return true, 0, reason, nil
	}
	if ttl < 0 {
		ttl = 0
	}

	return true, ttl, reason, nil
}

// Suspend suspends a requester for the given duration. The suspension
// expires automatically.
func (s *Store) Suspend(ctx context.Context, requesterID string, duration time.Duration, reason string) error {
	key := SuspendPrefix + requesterID
	return s.client.Set(ctx, key, reason, duration).Err()
}

// Lift removes a suspension immediately.
func (s *Store) Lift(ctx context.Context, requesterID string) error {
	key := SuspendPrefix + requesterID
	return s.client.Del(ctx, key).Err()
}

// escalationDuration returns the suspension duration for a given strike
// count.
func escalationDuration(strikes int) time.Duration {
	switch {
	case strikes <= StrikeThreshold:
		return Suspend15Min
	case strikes == StrikeThreshold+1:
		return Suspend1Hour
	default:
		return Suspend24Hour
	}
}

// Strikes returns the current strike counter for a requester. Returns 0
// if the key does not exist (no strikes recorded or counter expired).
func (s *Store) Strikes(ctx context.Context, requesterID string) (int, error) {
	key := StrikesPrefix + requesterID
	val, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// RecordStrike increments the strike counter for a requester and checks
// whether the threshold (3 strikes in 24h) has been reached. When it has,
// the requester is suspended for a duration that escalates with repeat
// offenses:
//
//	3rd strike  -> 15 minutes
//	4th strike  -> 1 hour
//	5th+ strike -> 24 hours
//
// The counter's TTL is set on first increment, so the window does not
// slide and counters expire on their own after quiet periods.
//
// Returns (suspended, duration, error).
func (s *Store) RecordStrike(ctx context.Context, requesterID string, reason string) (bool, time.Duration, error) {
	key := StrikesPrefix + requesterID

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("suspend: strike incr: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, StrikesTTL).Err(); err != nil {
			return false, 0, fmt.Errorf("suspend: strike expire: %w", err)
		}
	}

	if count < StrikeThreshold {
		return false, 0, nil
	}

	duration := escalationDuration(int(count))
	if err := s.Suspend(ctx, requesterID, duration, reason); err != nil {
		return false, 0, fmt.Errorf("suspend: strike suspend: %w", err)
	}
	return true, duration, nil
}
