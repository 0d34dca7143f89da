package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// Quota caps outbound provider calls with a token bucket so a burst of
// tasks cannot burn a day's API budget in minutes.
type Quota struct {
	limiter *rate.Limiter
}

func NewQuota(callsPerMinute int) *Quota {
	return &Quota{
		limiter: rate.NewLimiter(rate.Limit(callsPerMinute)/60, callsPerMinute),
	}
}

// Wait blocks until a call is allowed or the context is cancelled.
func (q *Quota) Wait(ctx context.Context) error {
	return q.limiter.Wait(ctx)
}

func (q *Quota) Allow() bool {
	return q.limiter.Allow()
}
