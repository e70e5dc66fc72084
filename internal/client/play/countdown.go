package play

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Countdown ticks once per interval from a number of seconds down to zero.
type Countdown struct {
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	return &Countdown{
		interval:  time.Second,
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// WithInterval changes the tick length; tests use a few milliseconds.
func (c *Countdown) WithInterval(d time.Duration) *Countdown {
	c.interval = d
	return c
}

// Start runs the countdown in its own goroutine until it expires, Stop is
// called or ctx ends. Calling Start twice has no effect.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.remaining > 0 {
					c.remaining--
				}
				left := c.remaining
				c.mu.Unlock()
				if c.onTick != nil {
					c.onTick(left)
				}
				if left == 0 {
					if c.onExpire != nil {
						c.onExpire()
					}
					return
				}
			}
		}
	}()
}

// Stop halts the countdown. It does not wait, so the callbacks may call it.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed once the countdown goroutine exits, or nil before Start.
func (c *Countdown) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
