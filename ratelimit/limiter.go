package ratelimit

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-linebot/core"
)

const resetFlightKey = "window-reset"

// State is a point-in-time view of the limiter.
type State struct {
	Capacity    int
	Window      time.Duration
	Remaining   int
	WindowStart time.Time
	ResetAt     time.Time
	Waiters     int
}

// Limiter admits at most Capacity calls per window. The window opens on the
// first admission after the previous one closed. When a window is exhausted
// one elected caller sleeps until it closes while the other contenders wait
// on the same flight and then re-check admission.
type Limiter struct {
	capacity int
	window   time.Duration

	mu          sync.Mutex
	remaining   int
	windowStart time.Time
	started     bool
	waiters     int

	flight   singleflight.Group
	now      func() time.Time
	sleep    func(time.Duration)
	observer core.Observer
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleep replaces the sleep used by the elected waiter.
func WithSleep(sleep func(time.Duration)) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

func WithObserver(observer core.Observer) Option {
	return func(l *Limiter) {
		l.observer = observer
	}
}

func NewLimiter(capacity int, window time.Duration, opts ...Option) (*Limiter, error) {
	if capacity <= 0 || window <= 0 {
		return nil, invariantError("ratelimit: capacity and window must be positive", map[string]any{
			"capacity":  capacity,
			"window_ms": window.Milliseconds(),
		})
	}
	limiter := &Limiter{
		capacity:  capacity,
		window:    window,
		remaining: capacity,
		now: func() time.Time {
			return time.Now().UTC()
		},
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(limiter)
		}
	}
	return limiter, nil
}

// Dispatch blocks until the caller is admitted. Cancelling ctx stops this
// caller from waiting; it never cuts the elected sleep short.
func (l *Limiter) Dispatch(ctx context.Context) error {
	if l == nil {
		return invariantError("ratelimit: limiter is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		wait, err := l.admit()
		if err != nil {
			return err
		}
		if wait == 0 {
			return nil
		}
		if err := l.awaitWindow(ctx, wait); err != nil {
			return err
		}
	}
}

// admit consumes one unit of the current window. A positive duration means
// the window is exhausted and the caller has to wait that long.
func (l *Limiter) admit() (time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started || !now.Before(l.windowStart.Add(l.window)) {
		l.started = true
		l.windowStart = now
		l.remaining = l.capacity
	}
	if l.remaining > 0 {
		l.remaining--
		return 0, nil
	}
	wait := l.windowStart.Add(l.window).Sub(now)
	if wait <= 0 {
		return 0, invariantError("ratelimit: window exhausted past its boundary", map[string]any{
			"window_start": l.windowStart,
			"now":          now,
		})
	}
	return wait, nil
}

func (l *Limiter) awaitWindow(ctx context.Context, wait time.Duration) error {
	l.mu.Lock()
	l.waiters++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiters--
		l.mu.Unlock()
	}()

	startedAt := time.Now()
	result := l.flight.DoChan(resetFlightKey, func() (any, error) {
		l.sleep(wait)
		return nil, nil
	})
	select {
	case <-ctx.Done():
		l.observer.Count(ctx, "linebot.ratelimit.cancelled", 1, nil)
		return ctx.Err()
	case res := <-result:
		l.observer.Histogram(ctx, "linebot.ratelimit.wait", float64(time.Since(startedAt).Milliseconds()), nil)
		return res.Err
	}
}

// Snapshot reports the current window without consuming capacity.
func (l *Limiter) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := State{
		Capacity:    l.capacity,
		Window:      l.window,
		Remaining:   l.remaining,
		WindowStart: l.windowStart,
		Waiters:     l.waiters,
	}
	if l.started {
		state.ResetAt = l.windowStart.Add(l.window)
	}
	return state
}

func invariantError(message string, metadata map[string]any) error {
	return core.NewError(message, goerrors.CategoryInternal, core.ErrorRateLimiterInvariant, metadata)
}
