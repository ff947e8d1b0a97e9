package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Window allows Limit hits per Window. A non-positive limit disables it.
type Window struct {
	Limit  int
	Period time.Duration
}

// Limiter counts attempts per subject (an IP, a user id) in fixed windows
// stored in redis. Every window is charged on each attempt.
type Limiter struct {
	store   WindowStore
	scope   string
	windows []Window
}

func NewLimiter(store WindowStore, scope string, windows ...Window) *Limiter {
	active := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Limit > 0 && w.Period > 0 {
			active = append(active, w)
		}
	}
	return &Limiter{
		store:   store,
		scope:   scope,
		windows: active,
	}
}

// PerMinuteAnd10Sec is the usual pair of windows for login endpoints.
func PerMinuteAnd10Sec(perMinute, per10Sec int) []Window {
	return []Window{
		{Limit: perMinute, Period: time.Minute},
		{Limit: per10Sec, Period: 10 * time.Second},
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.store != nil && len(l.windows) > 0
}

// Allow records an attempt and reports how long the subject must wait when
// any window is exhausted.
func (l *Limiter) Allow(ctx context.Context, subject string) (time.Duration, bool, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, false, fmt.Errorf("rate subject is required")
	}
	if !l.Enabled() {
		return 0, true, nil
	}

	var retryAfter time.Duration
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key(w, subject), w.Period)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.Limit) && ttl > retryAfter {
			retryAfter = ttl
		}
	}

	if retryAfter > 0 {
		return roundUp(retryAfter), false, nil
	}
	return 0, true, nil
}

// RetryAfter reports the current wait without recording an attempt.
func (l *Limiter) RetryAfter(ctx context.Context, subject string) (time.Duration, error) {
	if !l.Enabled() {
		return 0, nil
	}

	var retryAfter time.Duration
	for _, w := range l.windows {
		count, ttl, err := l.store.WindowState(ctx, l.key(w, strings.TrimSpace(subject)))
		if err != nil {
			return 0, err
		}
		if count >= int64(w.Limit) && ttl > retryAfter {
			retryAfter = ttl
		}
	}
	return roundUp(retryAfter), nil
}

func (l *Limiter) key(w Window, subject string) string {
	return "rate:" + l.scope + ":" + strconv.FormatInt(int64(w.Period/time.Second), 10) + "s:" + subject
}

func roundUp(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}
