package useragent

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/frankli0324/go-useragent/internal"
	"github.com/frankli0324/go-useragent/internal/http"
)

// RateLimit limits requests to rps per second for every host, allowing
// bursts of burst requests. requests wait for their turn, or fail when ctx
// is done first.
func RateLimit(rps float64, burst int) internal.Middleware {
	if burst < 1 {
		burst = 1
	}
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	limiterFor := func(host string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[host]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[host] = l
		}
		return l
	}
	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, req *internal.PreparedRequest) (*http.Response, error) {
			if err := limiterFor(req.U.Host).Wait(ctx); err != nil {
				return nil, err
			}
			return next(ctx, req)
		}
	}
}

// RequestID stamps requests with a random uuid in header name, unless the
// caller already set one.
func RequestID(name string) internal.Middleware {
	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, req *internal.PreparedRequest) (*http.Response, error) {
			if !hasHeader(req.Header, name) {
				req.Header[name] = []string{uuid.NewString()}
			}
			return next(ctx, req)
		}
	}
}

func hasHeader(h http.Header, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
