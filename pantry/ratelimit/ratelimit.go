// ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/inquiry/httputil"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// bucket is a token bucket refilled at rate tokens per second up to burst.
type bucket struct {
	rate     float64
	burst    float64
	tokens   float64
	lastTime time.Time
}

func (b *bucket) allow(now time.Time) bool {
	b.tokens = min(b.burst, b.tokens+now.Sub(b.lastTime).Seconds()*b.rate)
	b.lastTime = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// KeyLimiter is an in-process token bucket per key. Keys idle for longer
// than ttl are dropped by a janitor goroutine that runs until Close.
type KeyLimiter struct {
	mu      sync.Mutex
	buckets map[string]*entry
	rate    float64
	burst   int
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type entry struct {
	b        bucket
	lastSeen time.Time
}

// NewKeyLimiter allows burst requests at once per key, refilled at
// perMinute requests per minute.
func NewKeyLimiter(perMinute, burst int, ttl time.Duration) *KeyLimiter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	kl := &KeyLimiter{
		buckets: make(map[string]*entry),
		rate:    float64(perMinute) / 60,
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go kl.janitor()
	return kl
}

// Allow consumes one token for key. It never returns an error.
func (kl *KeyLimiter) Allow(_ context.Context, key string) (bool, error) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	e, ok := kl.buckets[key]
	if !ok {
		e = &entry{b: bucket{rate: kl.rate, burst: float64(kl.burst), tokens: float64(kl.burst), lastTime: now}}
		kl.buckets[key] = e
	}
	e.lastSeen = now
	return e.b.allow(now), nil
}

// Size returns the number of tracked keys.
func (kl *KeyLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

// Close stops the janitor.
func (kl *KeyLimiter) Close() {
	kl.once.Do(func() { close(kl.stop) })
}

func (kl *KeyLimiter) janitor() {
	ticker := time.NewTicker(kl.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.sweep()
		}
	}
}

func (kl *KeyLimiter) sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	now := kl.now()
	for key, e := range kl.buckets {
		if now.Sub(e.lastSeen) > kl.ttl {
			delete(kl.buckets, key)
		}
	}
}

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc keys on the client IP from RemoteAddr. Behind a proxy, mount
// chi's RealIP first so RemoteAddr carries the forwarded address.
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Options configures Middleware.
type Options struct {
	// KeyFunc defaults to IPKeyFunc.
	KeyFunc KeyFunc

	// RetryAfter is sent in the Retry-After header on 429 (default 60s).
	RetryAfter time.Duration

	// OnLimited runs before the 429 is written, e.g. to count it.
	OnLimited func(r *http.Request)

	// Logger receives limiter backend errors. Requests are allowed when the
	// limiter fails.
	Logger *zap.Logger
}

// Middleware answers 429 with a JSON "rate_limited" error once limiter
// refuses the request's key.
func Middleware(limiter Limiter, opts Options) func(http.Handler) http.Handler {
	if opts.KeyFunc == nil {
		opts.KeyFunc = IPKeyFunc
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	retryAfter := strconv.Itoa(int(opts.RetryAfter.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r.Context(), opts.KeyFunc(r))
			if err != nil {
				opts.Logger.Warn("rate limiter unavailable; allowing request", zap.Error(err))
				ok = true
			}
			if !ok {
				if opts.OnLimited != nil {
					opts.OnLimited(r)
				}
				w.Header().Set("Retry-After", retryAfter)
				httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited",
					"Too many submissions, please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
