// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// window holds the request times of one client inside the current window.
type window struct {
	mu    sync.Mutex
	times []time.Time
}

// prune drops times at or before cutoff and reports how many remain.
func (w *window) prune(cutoff time.Time) int {
	keep := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	w.times = keep
	return len(keep)
}

// RateLimiter is a per-client sliding window limiter. Authenticated
// requests are keyed by owner, anonymous ones by client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	stop    chan struct{}
}

// NewRateLimiter allows limit requests per period and sweeps idle
// clients in the background until Stop.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(max(rl.period, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// allow records a request for key. When the limit is reached it returns
// false and how long until the oldest request leaves the window.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	w, ok := rl.clients[key]
	if !ok {
		w = &window{}
		rl.clients[key] = w
	}
	rl.mu.Unlock()

	now := rl.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prune(now.Add(-rl.period)) >= rl.limit {
		return false, w.times[0].Add(rl.period).Sub(now)
	}
	w.times = append(w.times, now)
	return true, 0
}

// sweep forgets clients without requests in the current window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.period)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.clients {
		w.mu.Lock()
		empty := w.prune(cutoff) == 0
		w.mu.Unlock()
		if empty {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r)
		if owner, ok := OwnerFromContext(r.Context()); ok {
			key = "owner:" + owner
		}
		ok, retry := rl.allow(key)
		if !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
