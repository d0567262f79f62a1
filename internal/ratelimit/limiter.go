// Package ratelimit provides per-requester throttling for moderation
// checks. The Limiter interface is injected into the orchestrator so the
// backing store is a deployment choice: Redis INCR + EXPIRE windows when
// multiple service instances must share state, or an in-process sliding
// window for tests and single-instance runs.
//
// Rate limiting is defined but not enabled by default; the orchestrator
// only consults a Limiter when one is configured.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a rate limiting policy: the key prefix, maximum number of
// requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // key prefix (e.g., "rl:question:")
	Limit  int           // max count in the window
	Window time.Duration // time window
}

// Standard rules for the moderation call sites.
var (
	// RuleQuestion allows 20 tutor questions per hour per student.
	RuleQuestion = Rule{Key: "rl:question:", Limit: 20, Window: time.Hour}

	// RuleChat allows 30 chat messages per 10 minutes per student.
	RuleChat = Rule{Key: "rl:chat:", Limit: 30, Window: 10 * time.Minute}

	// RulePractice allows 60 practice checks per hour per student.
	RulePractice = Rule{Key: "rl:practice:", Limit: 60, Window: time.Hour}
)

// Limiter is the injected counter store. Allow increments the counter for
// the identifier and reports whether the request stays within the rule.
type Limiter interface {
	Allow(ctx context.Context, identifier string, rule Rule) (bool, error)
}

// RedisLimiter performs rate limiting checks against Redis using the
// INCR + EXPIRE sliding window algorithm, so multiple service instances
// share one view of each requester's budget.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter creates a RedisLimiter backed by the given client.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow checks whether the given identifier is within the rate limit
// defined by rule. It increments the counter in Redis and sets the expiry
// on first access.
//
// Returns true if the request is allowed, false if rate limited. On Redis
// errors the method fails open (returns true): a Redis outage must not
// block students, and the safety gates downstream still run.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[ratelimit] redis INCR error key=%s: %v (failing open)", key, err)
		return true, err
	}

	// On the first increment, set the expiry to define the window boundary.
	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			log.Printf("[ratelimit] redis EXPIRE error key=%s: %v (failing open)", key, err)
			// The key exists but has no TTL and would persist. Best effort:
			// delete it so it doesn't block the identifier forever.
			l.client.Del(ctx, key)
			return true, err
		}
	}

	if int(count) > rule.Limit {
		return false, nil
	}

	return true, nil
}

// Remaining returns the number of requests the identifier has left in the
// current window for the given rule. Returns the full limit if the key
// does not exist yet. On Redis errors it returns the full limit (fail
// open).
func (l *RedisLimiter) Remaining(ctx context.Context, identifier string, rule Rule) (int, error) {
	key := rule.Key + identifier

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		log.Printf("[ratelimit] redis GET error key=%s: %v (failing open)", key, err)
		return rule.Limit, err
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
