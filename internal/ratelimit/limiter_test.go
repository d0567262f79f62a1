package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestLimiter creates a RedisLimiter connected to a local Redis
// instance and flushes leftover test keys before returning. Tests that
// call this helper require a running Redis on localhost:6379.
func newTestLimiter(t *testing.T) (*RedisLimiter, *redis.Client) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	flush := func() {
		iter := client.Scan(ctx, 0, "rl:*:test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	flush()
	t.Cleanup(func() {
		flush()
		client.Close()
	})
	return NewRedisLimiter(client), client
}

func TestRedisLimiter_WithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:question:", Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "test_within", rule)
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d: expected allowed", i+1)
		}
	}
}

func TestRedisLimiter_OverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:question:", Limit: 2, Window: time.Minute}

	limiter.Allow(ctx, "test_over", rule)
	limiter.Allow(ctx, "test_over", rule)

	allowed, err := limiter.Allow(ctx, "test_over", rule)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if allowed {
		t.Error("expected third request to be denied")
	}
}

func TestRedisLimiter_WindowExpiry(t *testing.T) {
	limiter, client := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:question:", Limit: 1, Window: time.Minute}

	limiter.Allow(ctx, "test_expiry", rule)

	// The counter key must carry a TTL so the window closes on its own.
	ttl, err := client.TTL(ctx, rule.Key+"test_expiry").Result()
	if err != nil {
		t.Fatalf("TTL() error: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected TTL in (0,1m], got %v", ttl)
	}
}

func TestRedisLimiter_Remaining(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:question:", Limit: 5, Window: time.Minute}

	remaining, err := limiter.Remaining(ctx, "test_remaining", rule)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if remaining != 5 {
		t.Errorf("fresh identifier: expected remaining=5, got %d", remaining)
	}

	limiter.Allow(ctx, "test_remaining", rule)
	limiter.Allow(ctx, "test_remaining", rule)

	remaining, err = limiter.Remaining(ctx, "test_remaining", rule)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if remaining != 3 {
		t.Errorf("after 2 requests: expected remaining=3, got %d", remaining)
	}
}

func TestRedisLimiter_IdentifiersIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:question:", Limit: 1, Window: time.Minute}

	limiter.Allow(ctx, "test_indep_a", rule)
	if allowed, _ := limiter.Allow(ctx, "test_indep_a", rule); allowed {
		t.Error("first identifier should be over budget")
	}

	allowed, err := limiter.Allow(ctx, "test_indep_b", rule)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if !allowed {
		t.Error("second identifier should have its own budget")
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	// Point at a port nothing listens on; the limiter must allow and
	// surface the error rather than blocking the request.
	client := redis.NewClient(&redis.Options{Addr: "localhost:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { client.Close() })
	limiter := NewRedisLimiter(client)

	allowed, err := limiter.Allow(context.Background(), "test_failopen", RuleQuestion)
	if err == nil {
		t.Error("expected connection error to be reported")
	}
	if !allowed {
		t.Error("expected fail-open allow on Redis error")
	}
}
