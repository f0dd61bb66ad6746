package douyin

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const maxJitter = 500 * time.Millisecond

// pacer spaces calls to one endpoint by delay plus up to maxJitter. The
// first call never waits.
type pacer struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
}

func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delay <= 0 {
		return ctx.Err()
	}
	if !p.last.IsZero() {
		gap := p.delay + time.Duration(rand.Int64N(int64(maxJitter))) - time.Since(p.last)
		if err := sleepCtx(ctx, gap); err != nil {
			return err
		}
	}
	p.last = time.Now()
	return nil
}
