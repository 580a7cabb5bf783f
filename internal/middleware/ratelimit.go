package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ipLimiter: скользящее окно запросов по IP.
type ipLimiter struct {
	mu        sync.Mutex
	times     map[string][]time.Time
	max       int
	window    time.Duration
	now       func() time.Time
	lastPrune time.Time
}

func newIPLimiter(max int, window time.Duration) *ipLimiter {
	return &ipLimiter{times: make(map[string][]time.Time), max: max, window: window, now: time.Now}
}

func (l *ipLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastPrune) >= l.window {
		l.prune(cutoff)
		l.lastPrune = now
	}
	slice := l.times[key]
	i := 0
	for _, t := range slice {
		if t.After(cutoff) {
			slice[i] = t
			i++
		}
	}
	slice = slice[:i]
	if len(slice) >= l.max {
		l.times[key] = slice
		return false
	}
	l.times[key] = append(slice, now)
	return true
}

// prune удаляет ключи, у которых не осталось запросов в окне.
func (l *ipLimiter) prune(cutoff time.Time) {
	for k, ts := range l.times {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.times, k)
		}
	}
}

// RateLimitByIP ограничивает число запросов к /v1/auth/* с одного IP. 429 при превышении.
// max <= 0 отключает ограничение.
func RateLimitByIP(max int, window time.Duration) func(http.Handler) http.Handler {
	if max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newIPLimiter(max, window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(ClientIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
