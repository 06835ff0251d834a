package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore keeps one token bucket per client IP. Buckets idle for longer
// than ttl are dropped on the next call to Allow.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	r        rate.Limit
	b        int
	ttl      time.Duration
	now      func() time.Time
}

type clientLimiter struct {
	lim     *rate.Limiter
	lastHit time.Time
}

// NewLimiterStore allows perMinute requests per IP with the given burst.
func NewLimiterStore(perMinute, burst int, ttl time.Duration) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*clientLimiter),
		r:        rate.Limit(float64(perMinute) / 60),
		b:        burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow reports whether ip may make a request now.
func (s *LimiterStore) Allow(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.limiters {
		if now.Sub(v.lastHit) > s.ttl {
			delete(s.limiters, k)
		}
	}

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(s.r, s.b)}
		s.limiters[ip] = cl
	}
	cl.lastHit = now
	return cl.lim.AllowN(now, 1)
}

// Len is the number of tracked clients.
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimit answers 429 once a client exhausts its bucket. Mount it on the
// unauthenticated auth routes only.
func RateLimit(store *LimiterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Allow(ClientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate_limited","message":"Too many requests, try again later"}`)) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr. chi's RealIP middleware
// rewrites RemoteAddr from X-Forwarded-For when the server sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
