/*
Package limiter provides per-IP request rate limiting.

It uses the token bucket algorithm (rate.Limiter) per client IP and a
background sweep that removes idle buckets so the map does not grow forever.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/logx"
	"mingle/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// cleanupInterval controls how often idle limiters are swept.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter maps client IP addresses to token bucket limiters.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu *sync.RWMutex

	// limits stores the limiter instance per client IP.
	limits map[string]*rate.Limiter

	// r is the sustained rate (events per second).
	r rate.Limit

	// b is the burst capacity of each bucket.
	b int
}

// NewIPRateLimiter creates an IPRateLimiter with rate r and burst b and starts
// the background cleanup goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		mu:     &sync.RWMutex{},
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter returns the limiter for the given IP, creating it on first use.
// Double-checked locking keeps the common read path cheap.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanUpVisitors periodically removes limiters whose bucket is full again,
// meaning the IP has been idle long enough to not matter.
func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		count := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				count++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()
		logx.Info("Rate limiter cleanup finished", "removed", count, "remaining", remaining)
	}
}

// ClientIP extracts the bare IP from an http.Request RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}

// Middleware enforces the limit on incoming requests, answering 429 when the
// bucket is empty.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := i.GetLimiter(ClientIP(r))

		if !limiter.Allow() {
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}
