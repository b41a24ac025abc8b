package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimit is a per-client token bucket.
type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

// idleVisitor is how long an unused client limiter is kept.
const idleVisitor = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one limiter per client address.
type RateLimiter struct {
	limit    RateLimit
	log      *zap.SugaredLogger
	mu       sync.Mutex
	visitors map[string]*visitor
	nowFn    func() time.Time
}

// NewRateLimiter returns a limiter enforcing limit per client.
func NewRateLimiter(limit RateLimit, log *zap.SugaredLogger) *RateLimiter {
	if log == nil {
		log = nopLogger()
	}
	return &RateLimiter{
		limit:    limit,
		log:      log,
		visitors: make(map[string]*visitor),
		nowFn:    time.Now,
	}
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := clientID(r)
		if !l.allow(id) {
			l.log.Warnw("Rate limit exceeded", "client", id, "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate_limited", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleVisitor {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[id]
	if !ok {
		perSecond := l.limit.RequestsPerMinute / 60.0
		if perSecond <= 0 {
			perSecond = 1
		}
		burst := l.limit.Burst
		if burst <= 0 {
			burst = 1
		}
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
		l.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if parsed := net.ParseIP(first); parsed != nil {
			return parsed.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
