package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiter(t *testing.T, clock *fakeClock) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "test:", Now: clock.Now}, mr
}

func TestLimiterAllowSlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	limiter, _ := newLimiter(t, clock)
	ctx := context.Background()
	window := 2 * time.Second
	max := 2
	start := clock.Now()

	for i := 0; i < max; i++ {
		allowed, remaining, reset, err := limiter.Allow(ctx, "key", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if remaining != max-(i+1) {
			t.Fatalf("unexpected remaining: %d", remaining)
		}
		if !reset.Equal(start.Add(window)) {
			t.Fatalf("reset should track the oldest attempt, got %v", reset)
		}
		clock.Advance(500 * time.Millisecond)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, "key", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("expected third request to be rejected")
	}
	if remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}
	if !reset.Equal(start.Add(window)) {
		t.Fatalf("unexpected reset %v", reset)
	}

	// the first attempt slides out, the second is still counted
	clock.Advance(1200 * time.Millisecond)
	allowed, remaining, _, err = limiter.Allow(ctx, "key", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || remaining != 0 {
		t.Fatalf("expected allowed with 0 remaining, got %v/%d", allowed, remaining)
	}
}

func TestLimiterRejectedAttemptsDoNotExtendBlock(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	limiter, mr := newLimiter(t, clock)
	ctx := context.Background()
	window := time.Minute

	if allowed, _, _, _ := limiter.Allow(ctx, "ip", window, 1); !allowed {
		t.Fatal("first attempt should pass")
	}
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		if allowed, _, _, _ := limiter.Allow(ctx, "ip", window, 1); allowed {
			t.Fatalf("attempt %d should be rejected", i)
		}
	}
	members, err := mr.ZMembers("test:ip")
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected only the accepted attempt stored, got %d", len(members))
	}

	clock.Advance(15 * time.Second)
	if allowed, _, _, _ := limiter.Allow(ctx, "ip", window, 1); !allowed {
		t.Fatal("expected attempt once the accepted one left the window")
	}
}

func TestLimiterWithoutRedisAllows(t *testing.T) {
	allowed, remaining, _, err := Limiter{}.Allow(context.Background(), "k", time.Second, 3)
	if err != nil || !allowed || remaining != 3 {
		t.Fatalf("expected pass-through, got %v %d %v", allowed, remaining, err)
	}
}
