package middleware

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/bandwagonhq/podium/internal/domain"
	"github.com/bandwagonhq/podium/internal/ports"
)

// rateLimitedAggregates wraps an AggregateSource with a per-event token
// bucket. Live previews recompute the whole cohort on every request, and
// admin run-of-show dashboards poll aggressively during voting; the
// limiter paces those reads without affecting snapshot serving, which
// never touches the aggregate source.
type rateLimitedAggregates struct {
	next  ports.AggregateSource
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// RateLimitAggregates wraps an AggregateSource with per-event rate
// limiting using a token bucket algorithm. The limit parameter sets reads
// per second per event, while burst allows temporary spikes above the
// sustained rate. A non-positive limit returns the source unwrapped.
func RateLimitAggregates(next ports.AggregateSource, limit rate.Limit, burst int) ports.AggregateSource {
	if limit <= 0 {
		return next
	}
	return &rateLimitedAggregates{
		next:     next,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// BandVoteAggregates waits for rate limit permission for the event before
// forwarding the read. It blocks the calling goroutine until a token is
// available or the context is cancelled.
func (r *rateLimitedAggregates) BandVoteAggregates(ctx context.Context, eventID string) ([]domain.BandVoteAggregate, error) {
	if err := r.limiterFor(eventID).Wait(ctx); err != nil {
		return nil, fmt.Errorf("preview rate limit: %w", err)
	}
	return r.next.BandVoteAggregates(ctx, eventID)
}

// limiterFor returns the event's limiter, creating it on first use.
func (r *rateLimitedAggregates) limiterFor(eventID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[eventID]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[eventID] = l
	}
	return l
}
