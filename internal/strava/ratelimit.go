package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day
const (
	shortWindow = 15 * time.Minute
	minInterval = 150 * time.Millisecond
)

// RateLimiter manages Strava API rate limits
type RateLimiter struct {
	mu  sync.Mutex
	now func() time.Time

	// 15-minute window
	shortLimit    int
	shortUsage    int
	shortResetsAt time.Time

	// Daily window
	dailyLimit    int
	dailyUsage    int
	dailyResetsAt time.Time

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a new rate limiter with Strava's limits
func NewRateLimiter() *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		now:           time.Now,
		shortLimit:    100,
		shortResetsAt: now.Add(shortWindow),
		dailyLimit:    1000,
		dailyResetsAt: nextDay(now),
		minInterval:   minInterval,
	}
}

func nextDay(t time.Time) time.Time {
	return t.Truncate(24 * time.Hour).Add(24 * time.Hour)
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	// Reset windows if expired
	if now.After(r.shortResetsAt) {
		r.shortUsage = 0
		r.shortResetsAt = now.Add(shortWindow)
	}
	if now.After(r.dailyResetsAt) {
		r.dailyUsage = 0
		r.dailyResetsAt = nextDay(now)
	}

	if r.shortUsage >= r.shortLimit {
		if err := r.sleep(ctx, r.shortResetsAt.Sub(now)); err != nil {
			return err
		}
		r.shortUsage = 0
		r.shortResetsAt = r.now().Add(shortWindow)
	}

	if r.dailyUsage >= r.dailyLimit {
		if err := r.sleep(ctx, r.dailyResetsAt.Sub(r.now())); err != nil {
			return err
		}
		r.dailyUsage = 0
		r.dailyResetsAt = nextDay(r.now())
	}

	// Enforce minimum interval between requests
	if elapsed := r.now().Sub(r.lastRequest); elapsed < r.minInterval {
		if err := r.sleep(ctx, r.minInterval-elapsed); err != nil {
			return err
		}
	}

	r.shortUsage++
	r.dailyUsage++
	r.lastRequest = r.now()

	return nil
}

// sleep releases the lock while waiting. Must be called with r.mu held.
func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	r.mu.Unlock()
	defer r.mu.Lock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders updates rate limit state from Strava response headers
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strava returns: X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512"
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.shortUsage, r.dailyUsage = short, daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.shortLimit, r.dailyLimit = short, daily
	}
}

func parsePair(v string) (first, second int, ok bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	first, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	second, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return first, second, true
}

// Status returns current rate limit status
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}
