package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cindral/core/internal/handlers"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per tenant, falling back to the client
// IP when no tenant header is sent. Idle buckets are swept in the background
// until Stop is called.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor

	stop chan struct{}
	once sync.Once
	done chan struct{}
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     3 * time.Minute,
		now:      time.Now,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go rl.sweepLoop(time.Minute)
	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *RateLimiter) sweepLoop(every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
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

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.rps <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !rl.limiter(clientKey(r)).Allow() {
			handlers.WriteTooManyRequests(w, r, 1)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey buckets by tenant when the header is well formed, else by address.
func clientKey(r *http.Request) string {
	if tenant := r.Header.Get(handlers.TenantHeader); handlers.ValidTenantID(tenant) {
		return "tenant:" + tenant
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.Trim(r.RemoteAddr, "[]")
	}
	return "ip:" + ip
}
