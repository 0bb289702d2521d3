package marketdata

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces calls to one provider by a minimum interval. The free
// tiers of the quote services throttle aggressively, so every client
// waits on its pacer before touching the network. The first call goes
// through immediately.
type pacer struct {
	lim *rate.Limiter
}

func newPacer(minInterval time.Duration) *pacer {
	if minInterval <= 0 {
		return &pacer{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &pacer{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// wait blocks until the next call is allowed or the context ends.
func (p *pacer) wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
