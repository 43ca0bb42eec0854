// Package ratelimit provides the two rate limiters the gateway needs: an
// IP-based limiter for HTTP/WS connection attempts, and a per-connection
// limiter for inbound wire events (chat, shoot, move) once attached.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// IPConfig configures the IP-based rate limiter.
type IPConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
}

// DefaultIPConfig returns production-safe defaults.
var DefaultIPConfig = IPConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter rate-limits by client IP, with background cleanup of stale
// entries so long-lived servers don't leak memory per distinct visitor.
type IPLimiter struct {
	limiters sync.Map // map[string]*ipEntry
	cfg      IPConfig
	stopChan chan struct{}
	stopOnce sync.Once

	rejected uint64
	allowed  uint64
}

// NewIPLimiter creates and starts an IP rate limiter.
func NewIPLimiter(cfg IPConfig) *IPLimiter {
	l := &IPLimiter{cfg: cfg, stopChan: make(chan struct{})}
	go l.cleanupLoop()
	return l
}

// Stop halts the cleanup goroutine.
func (l *IPLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

func (l *IPLimiter) getLimiter(ip string) *rate.Limiter {
	now := time.Now()
	if v, ok := l.limiters.Load(ip); ok {
		e := v.(*ipEntry)
		e.lastSeen = now
		return e.limiter
	}
	e := &ipEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst), lastSeen: now}
	actual, _ := l.limiters.LoadOrStore(ip, e)
	return actual.(*ipEntry).limiter
}

func (l *IPLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-l.cfg.CleanupInterval * 2)
			l.limiters.Range(func(k, v any) bool {
				if v.(*ipEntry).lastSeen.Before(cutoff) {
					l.limiters.Delete(k)
				}
				return true
			})
		}
	}
}

// Allow reports whether a request from ip should proceed.
func (l *IPLimiter) Allow(ip string) bool {
	if l.getLimiter(ip).Allow() {
		atomic.AddUint64(&l.allowed, 1)
		return true
	}
	atomic.AddUint64(&l.rejected, 1)
	return false
}

// Stats returns allowed/rejected counters for metrics/debugging.
func (l *IPLimiter) Stats() (allowed, rejected uint64) {
	return atomic.LoadUint64(&l.allowed), atomic.LoadUint64(&l.rejected)
}

// Middleware returns chi-compatible HTTP middleware enforcing the limiter.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP, honoring X-Forwarded-For/X-Real-IP for
// requests behind a trusted proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ConnLimiter caps concurrent WebSocket connections per IP.
type ConnLimiter struct {
	counts   sync.Map // map[string]*int32
	maxPerIP int
	rejected uint64
}

// NewConnLimiter creates a per-IP concurrent connection limiter.
func NewConnLimiter(maxPerIP int) *ConnLimiter {
	return &ConnLimiter{maxPerIP: maxPerIP}
}

// Allow attempts to reserve one connection slot for ip.
func (c *ConnLimiter) Allow(ip string) bool {
	actual, _ := c.counts.LoadOrStore(ip, new(int32))
	counter := actual.(*int32)
	for {
		cur := atomic.LoadInt32(counter)
		if int(cur) >= c.maxPerIP {
			atomic.AddUint64(&c.rejected, 1)
			return false
		}
		if atomic.CompareAndSwapInt32(counter, cur, cur+1) {
			return true
		}
	}
}

// Release frees one connection slot for ip.
func (c *ConnLimiter) Release(ip string) {
	if v, ok := c.counts.Load(ip); ok {
		atomic.AddInt32(v.(*int32), -1)
	}
}
