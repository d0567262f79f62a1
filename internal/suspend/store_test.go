package suspend

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestStore creates a Store connected to a local Redis instance and
// flushes all suspension and strike keys before returning. Tests that
// call this helper require a running Redis on localhost:6379.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	flush := func() {
		for _, prefix := range []string{SuspendPrefix + "test_*", StrikesPrefix + "test_*"} {
			iter := client.Scan(ctx, 0, prefix, 100).Iterator()
			for iter.Next(ctx) {
				client.Del(ctx, iter.Val())
			}
		}
	}
	flush()
	t.Cleanup(func() {
		flush()
		client.Close()
	})
	return NewStore(client)
}

func TestStatus_NotSuspended(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	suspended, remaining, reason, err := store.Status(ctx, "test_clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suspended {
		t.Errorf("expected not suspended, got suspended (remaining=%v reason=%q)", remaining, reason)
	}
}

func TestSuspendAndStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test_suspend"

	if err := store.Suspend(ctx, id, 30*time.Second, "repeated violations"); err != nil {
		t.Fatalf("Suspend() error: %v", err)
	}

	suspended, remaining, reason, err := store.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !suspended {
		t.Fatal("expected suspended=true")
	}
	if reason != "repeated violations" {
		t.Errorf("expected reason=%q, got %q", "repeated violations", reason)
	}
	if remaining <= 0 || remaining > 30*time.Second {
		t.Errorf("expected remaining in (0,30s], got %v", remaining)
	}
}

func TestLift(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test_lift"

	if err := store.Suspend(ctx, id, time.Minute, "test"); err != nil {
		t.Fatalf("Suspend() error: %v", err)
	}
	if err := store.Lift(ctx, id); err != nil {
		t.Fatalf("Lift() error: %v", err)
	}

	suspended, _, _, err := store.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if suspended {
		t.Error("expected not suspended after Lift()")
	}
}

func TestEscalationDuration(t *testing.T) {
	cases := []struct {
		strikes  int
		expected time.Duration
	}{
		{3, Suspend15Min},
		{4, Suspend1Hour},
		{5, Suspend24Hour},
		{10, Suspend24Hour},
	}
	for _, tc := range cases {
		got := escalationDuration(tc.strikes)
		if got != tc.expected {
			t.Errorf("escalationDuration(%d) = %v, want %v", tc.strikes, got, tc.expected)
		}
	}
}

func TestRecordStrike_BelowThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test_strike_below"

	for i := 1; i < StrikeThreshold; i++ {
		suspended, duration, err := store.RecordStrike(ctx, id, "profanity")
		if err != nil {
			t.Fatalf("RecordStrike() error: %v", err)
		}
		if suspended {
			t.Fatalf("strike %d: expected suspended=false", i)
		}
		if duration != 0 {
			t.Errorf("strike %d: expected duration=0, got %v", i, duration)
		}
	}

	suspended, _, _, _ := store.Status(ctx, id)
	if suspended {
		t.Error("requester should not be suspended below the threshold")
	}
}

func TestRecordStrike_SuspendsAtThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test_strike_threshold"

	store.RecordStrike(ctx, id, "violence")
	store.RecordStrike(ctx, id, "violence")

	suspended, duration, err := store.RecordStrike(ctx, id, "violence")
	if err != nil {
		t.Fatalf("RecordStrike() error: %v", err)
	}
	if !suspended {
		t.Fatal("expected suspension at the third strike")
	}
	if duration != Suspend15Min {
		t.Errorf("first suspension: expected %v, got %v", Suspend15Min, duration)
	}

	isSuspended, _, reason, _ := store.Status(ctx, id)
	if !isSuspended {
		t.Fatal("expected Status to report the suspension")
	}
	if reason != "violence" {
		t.Errorf("expected reason=%q, got %q", "violence", reason)
	}
}

func TestRecordStrike_Escalates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test_strike_escalate"

	// Reach the threshold.
	store.RecordStrike(ctx, id, "spam")
	store.RecordStrike(ctx, id, "spam")
	store.RecordStrike(ctx, id, "spam")
	store.Lift(ctx, id)

	// Fourth strike escalates to one hour.
	suspended, duration, err := store.RecordStrike(ctx, id, "spam")
	if err != nil {
		t.Fatalf("4th RecordStrike() error: %v", err)
	}
	if !suspended {
		t.Fatal("expected suspended=true for 4th strike")
	}
	if duration != Suspend1Hour {
		t.Errorf("4th strike: expected %v, got %v", Suspend1Hour, duration)
	}

	// Fifth strike caps at 24 hours.
	store.Lift(ctx, id)
	_, duration, err = store.RecordStrike(ctx, id, "spam")
	if err != nil {
		t.Fatalf("5th RecordStrike() error: %v", err)
	}
	if duration != Suspend24Hour {
		t.Errorf("5th strike: expected %v (capped), got %v", Suspend24Hour, duration)
	}
}

func TestStrikes_CounterTTL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test_strike_ttl"

	store.RecordStrike(ctx, id, "test")

	count, err := store.Strikes(ctx, id)
	if err != nil {
		t.Fatalf("Strikes() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count=1, got %d", count)
	}

	// The counter must carry a TTL close to the strike window.
	ttl, err := store.client.TTL(ctx, StrikesPrefix+id).Result()
	if err != nil {
		t.Fatalf("TTL() error: %v", err)
	}
	if ttl < StrikesTTL-10*time.Second || ttl > StrikesTTL {
		t.Errorf("expected TTL ~%v, got %v", StrikesTTL, ttl)
	}
}
