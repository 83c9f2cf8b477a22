package service

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"accessible-backend/internal/config"
	"accessible-backend/pkg/logger"
)

// RateDecision is the limiter's verdict for one request.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
	// Bonus is set when the accessibility allowance was applied.
	Bonus bool
}

type limiterEntry struct {
	limiter  *rate.Limiter
	limit    int
	window   time.Duration
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key and rule.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// Enabled reports whether limits are enforced at all.
func (r *RateLimiter) Enabled() bool {
	return r.cfg.Enabled
}

// Allow spends one request from the bucket for identity under rule.
// identity is "user:<id>" or "ip:<addr>". Unknown rules always allow.
// Standard and accessible allowances are separate buckets, so switching
// between them never refills either one.
func (r *RateLimiter) Allow(rule, identity string, accessible bool) RateDecision {
	budget, ok := r.cfg.Rules[rule]
	if !r.cfg.Enabled || !ok {
		return RateDecision{Allowed: true}
	}

	limit, window := budget.MaxRequests, budget.Window
	if accessible {
		limit = int(math.Floor(float64(limit) * r.cfg.RequestBonus))
		window = time.Duration(float64(window) * r.cfg.WindowBonus)
	}
	if limit <= 0 || window <= 0 {
		return RateDecision{Allowed: true}
	}

	key := identity + ":" + rule + ":standard"
	if accessible {
		key = identity + ":" + rule + ":accessible"
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		every := rate.Limit(float64(limit) / window.Seconds())
		entry = &limiterEntry{
			limiter: rate.NewLimiter(every, limit),
			limit:   limit,
			window:  window,
		}
		r.entries[key] = entry
	}
	entry.lastSeen = now

	decision := RateDecision{Limit: limit, Bonus: accessible}

	res := entry.limiter.ReserveN(now, 1)
	if !res.OK() {
		decision.RetryAfter = window
		decision.ResetAt = now.Add(window)
		return decision
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		decision.RetryAfter = delay
		decision.ResetAt = now.Add(delay)
		return decision
	}

	tokens := entry.limiter.TokensAt(now)
	decision.Allowed = true
	decision.Remaining = max(0, int(math.Floor(tokens)))
	refill := time.Duration((float64(limit) - tokens) / float64(entry.limiter.Limit()) * float64(time.Second))
	decision.ResetAt = now.Add(refill)
	return decision
}

// Sweep drops buckets idle for longer than their window. Such buckets have
// refilled completely and would be recreated identical.
func (r *RateLimiter) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, entry := range r.entries {
		if now.Sub(entry.lastSeen) > entry.window {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets until ctx is cancelled.
func (r *RateLimiter) Run(ctx context.Context) {
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Debugf("rate limiter swept %d idle buckets", n)
			}
		}
	}
}

func (r *RateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
