package httpapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleTTL is how long a client's buckets survive without requests.
const clientIdleTTL = 10 * time.Minute

// RateClass is a request budget shared by a group of endpoints. Leaderboards
// aggregate whole windows and get a tighter class than single-user reads.
type RateClass struct {
	Name  string
	Limit rate.Limit
	Burst int
}

type bucketKey struct {
	class  string
	client string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client and rate class, so
// exhausting one class leaves the others usable.
type ClientLimiter struct {
	mu        sync.Mutex
	buckets   map[bucketKey]*bucket
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewClientLimiter creates a limiter that forgets clients idle for idleTTL.
func NewClientLimiter(idleTTL time.Duration) *ClientLimiter {
	return &ClientLimiter{
		buckets: make(map[bucketKey]*bucket),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// reserve takes a token for client in class. It returns 0 when the request
// may proceed, otherwise how long the client should wait.
func (l *ClientLimiter) reserve(class RateClass, client string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	key := bucketKey{class: class.Name, client: client}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(class.Limit, class.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return l.idleTTL
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

func (l *ClientLimiter) clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Limit returns middleware applying class to each client address. Rejected
// requests get 429 with Retry-After in whole seconds.
func (l *ClientLimiter) Limit(class RateClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait := l.reserve(class, clientAddr(r)); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded for "+class.Name+" endpoints")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
