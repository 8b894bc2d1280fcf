package fetcher

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter caps the request rate per host across all goroutines sharing
// the fetcher. It complements the crawler's fixed politeness delay, which
// only spaces requests within one domain's traversal.
type HostLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter returns a limiter allowing rps requests per second per host.
// A non-positive rps returns nil, which never blocks.
func NewHostLimiter(rps float64) *HostLimiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
