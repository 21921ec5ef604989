package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterIdle       = 10 * time.Minute
	limiterSweepAbove = 1024
)

// Option configures the router built by New.
type Option func(*handler)

// WithRateLimit limits every client IP to rps requests per second with the
// given burst on the /api/v1 routes. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *handler) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		h.limiter = newClientLimiter(rate.Limit(rps), burst, time.Now)
	}
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// clientLimiter keeps one token bucket per client key.
type clientLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func newClientLimiter(rps rate.Limit, burst int, now func() time.Time) *clientLimiter {
	return &clientLimiter{
		visitors: make(map[string]*visitor),
		rps:      rps,
		burst:    burst,
		now:      now,
	}
}

// allow reports whether key may make a request now. Idle clients are
// forgotten once the table grows past limiterSweepAbove.
func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.visitors) > limiterSweepAbove {
		for k, v := range c.visitors {
			if now.Sub(v.seen) > limiterIdle {
				delete(c.visitors, k)
			}
		}
	}

	v, ok := c.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.visitors[key] = v
	}
	v.seen = now
	return v.limiter.AllowN(now, 1)
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !c.allow(key) {
			zap.L().Debug("server: rate limited", zap.String("client", key), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the client IP. RealIP has already applied forwarding headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
