package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/ivankudzin/orgreviews/internal/repo/redis"
)

func TestLimiterBlocksOn10SecondWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)

	limiter := NewLimiter(redrepo.NewRateRepo(client), "login", PerMinuteAnd10Sec(100, 2)...)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%s", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("allow #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected block on third attempt in 10s window")
	}
	if retryAfter <= 0 || retryAfter%time.Second != 0 {
		t.Fatalf("expected positive whole-second retry_after, got %s", retryAfter)
	}

	current, err := limiter.RetryAfter(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if current <= 0 {
		t.Fatalf("expected positive retry_after state, got %s", current)
	}

	if _, allowed, _ := limiter.Allow(ctx, "10.0.0.2"); !allowed {
		t.Fatalf("other subjects must not share the window")
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("allow after 10s window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%s", allowed, retryAfter)
	}
}

func TestLimiterBlocksOnMinuteWindow(t *testing.T) {
	_, client := newMiniRedisClient(t)

	limiter := NewLimiter(redrepo.NewRateRepo(client), "login", PerMinuteAnd10Sec(3, 100)...)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, allowed, err := limiter.Allow(ctx, "user-1"); err != nil || !allowed {
			t.Fatalf("allow #%d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("allow #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected block on fourth attempt in minute window")
	}
	if retryAfter <= 10*time.Second {
		t.Fatalf("expected the minute window to drive retry_after, got %s", retryAfter)
	}
}

func TestLimiterWithoutWindowsAllowsEverything(t *testing.T) {
	_, client := newMiniRedisClient(t)

	limiter := NewLimiter(redrepo.NewRateRepo(client), "login", PerMinuteAnd10Sec(0, 0)...)
	if limiter.Enabled() {
		t.Fatalf("limiter with zero limits must be disabled")
	}
	for i := 0; i < 50; i++ {
		if _, allowed, err := limiter.Allow(context.Background(), "ip"); err != nil || !allowed {
			t.Fatalf("disabled limiter blocked attempt %d: err=%v", i+1, err)
		}
	}

	if _, _, err := limiter.Allow(context.Background(), " "); err == nil {
		t.Fatalf("expected error for blank subject")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}
