package ratelimit

import (
	"context"
	"flag"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// API identifies one upstream fund endpoint for rate limiting purposes.
type API string

const (
	// APITiantian is the Tiantian realtime estimate endpoint.
	APITiantian API = "tiantian"
	// APIEastmoneyNAV is the Eastmoney published NAV endpoint.
	APIEastmoneyNAV API = "eastmoney-nav"
	// APIEastmoneyDetail is the Eastmoney mobile fund detail endpoint.
	APIEastmoneyDetail API = "eastmoney-detail"
	// APIAntFund is the Ant Fund info endpoint.
	APIAntFund API = "antfund"
)

// pacing holds requests-per-second and burst per endpoint. None of the
// providers publish a quota; these are the polite polling rates the scrapers
// always needed. The Eastmoney endpoints start serving captchas when hit much
// faster than this, and Ant Fund is the quickest to block scrapers.
var pacing = map[API]struct {
	limit rate.Limit
	burst int
}{
	APITiantian:        {rate.Limit(5), 2},
	APIEastmoneyNAV:    {rate.Limit(5), 2},
	APIEastmoneyDetail: {rate.Limit(5), 2},
	APIAntFund:         {rate.Limit(2), 1},
}

// Limiter paces outbound requests per upstream endpoint. The limiter map is
// built once and read-only afterwards, so lookups need no locking.
type Limiter struct {
	limiters map[API]*rate.Limiter
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the process-wide limiter shared by all adapters.
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = newLimiter()
	})
	return instance
}

func newLimiter() *Limiter {
	l := &Limiter{limiters: make(map[API]*rate.Limiter, len(pacing))}
	for api, p := range pacing {
		if testMode() {
			// Pacing fake upstreams would only slow the suite down
			l.limiters[api] = rate.NewLimiter(rate.Inf, 1)
			continue
		}
		l.limiters[api] = rate.NewLimiter(p.limit, p.burst)
	}
	return l
}

// testMode reports whether this process is a test binary.
func testMode() bool {
	if os.Getenv("GO_TESTING") == "1" {
		return true
	}
	return flag.Lookup("test.v") != nil
}

// Wait blocks until the limiter for the given endpoint permits a request, or
// the context ends first. Unknown endpoints pass through unpaced.
func (l *Limiter) Wait(ctx context.Context, api API) error {
	limiter, ok := l.limiters[api]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
