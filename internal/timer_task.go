package internal

import (
	"context"
	"time"
)

// TimerHandler is invoked once immediately on Start and then once per
// tick thereafter. It reports whether it found work to do; when true,
// TimerTask loops again immediately instead of waiting for the next
// tick, so a handler backed by a queue drains a backlog at full speed
// instead of being throttled to one attempt per interval.
type TimerHandler func(context.Context) bool

// TimerTask runs a TimerHandler on a fixed interval until Stop is called
// or its parent context is canceled, except that it skips the wait and
// re-invokes the handler right away whenever the handler reports it did
// work. It backs the claim poll loop, the lease reaper, the metrics
// roll-up worker, and any retention cleaner built on it.
type TimerTask struct {
	cancel context.CancelFunc
	done   DoneChan
}

func (t *TimerTask) do(ctx context.Context, h TimerHandler, interval time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if h(ctx) {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Start begins running h every interval, starting immediately. Start must
// be called at most once per TimerTask.
func (t *TimerTask) Start(ctx context.Context, h TimerHandler, interval time.Duration) {
	t.done = make(DoneChan)
	ctx, t.cancel = context.WithCancel(ctx)
	go t.do(ctx, h, interval)
}

// Stop cancels the task and returns a DoneChan that closes once the
// current (if any) invocation of h returns.
func (t *TimerTask) Stop() DoneChan {
	t.cancel()
	return t.done
}
