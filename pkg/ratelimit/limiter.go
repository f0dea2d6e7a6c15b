package ratelimit

import (
	"slices"
	"sync"
	"time"
)

// Limit names passed to the OnWait hook
const (
	LimitPerSecond = "per_second"
	LimitPerWindow = "per_window"
)

// Default caps for a Riot development key
const (
	DefaultPerSecond = 20
	DefaultPerWindow = 100
	DefaultWindow    = 120 * time.Second
	DefaultMargin    = 100 * time.Millisecond
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow records a request and returns true if it fits under the limit right now
	Allow() bool
	// Wait blocks until one request may be issued and records it
	Wait()
	// Reset clears the limiter state
	Reset()
}

// Clock abstracts time so the limiter can be driven by tests
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option configures a DualWindow
type Option func(*DualWindow)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(dw *DualWindow) { dw.clock = c }
}

// WithMargin sets the safety margin added to every sleep
func WithMargin(margin time.Duration) Option {
	return func(dw *DualWindow) { dw.margin = margin }
}

// WithOnWait registers a hook called before every sleep with the limit that caused it
func WithOnWait(fn func(limit string, sleep time.Duration)) Option {
	return func(dw *DualWindow) { dw.onWait = fn }
}

// DualWindow enforces two caps at once: at most perSecond requests in any
// one-second span and at most perWindow requests in any rolling window.
// One Wait call admits exactly one request; callers must issue the request
// right after Wait returns.
type DualWindow struct {
	perSecond int
	perWindow int
	window    time.Duration
	margin    time.Duration
	clock     Clock
	onWait    func(limit string, sleep time.Duration)

	mu       sync.Mutex
	requests []time.Time // sorted, pruned to window on every call
}

// NewDualWindow creates a limiter with the given caps
func NewDualWindow(perSecond, perWindow int, window time.Duration, opts ...Option) *DualWindow {
	dw := &DualWindow{
		perSecond: perSecond,
		perWindow: perWindow,
		window:    window,
		margin:    DefaultMargin,
		clock:     realClock{},
		requests:  make([]time.Time, 0, perWindow),
	}
	for _, opt := range opts {
		opt(dw)
	}
	return dw
}

// NewDefault creates a limiter with the default development-key caps
func NewDefault(opts ...Option) *DualWindow {
	return NewDualWindow(DefaultPerSecond, DefaultPerWindow, DefaultWindow, opts...)
}

// Wait blocks until one more request fits under both caps, then records it
func (dw *DualWindow) Wait() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	now := dw.clock.Now()
	dw.prune(now)

	// A single sleep may not be enough when timestamps cluster, so loop
	// until the window cap genuinely has room.
	for dw.perWindow > 0 && len(dw.requests) >= dw.perWindow {
		oldest := dw.requests[0]
		dw.sleep(LimitPerWindow, dw.window-now.Sub(oldest))
		now = dw.clock.Now()
		dw.prune(now)
	}

	if dw.perSecond > 0 && len(dw.requests) >= dw.perSecond {
		nth := dw.requests[len(dw.requests)-dw.perSecond]
		dw.sleep(LimitPerSecond, time.Second-now.Sub(nth))
	}

	dw.requests = append(dw.requests, dw.clock.Now())
}

// Allow records a request only if both caps have room right now
func (dw *DualWindow) Allow() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	now := dw.clock.Now()
	dw.prune(now)

	if dw.perWindow > 0 && len(dw.requests) >= dw.perWindow {
		return false
	}
	if dw.perSecond > 0 && len(dw.requests) >= dw.perSecond {
		nth := dw.requests[len(dw.requests)-dw.perSecond]
		if now.Sub(nth) < time.Second {
			return false
		}
	}

	dw.requests = append(dw.requests, now)
	return true
}

// Reset clears all recorded requests
func (dw *DualWindow) Reset() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.requests = dw.requests[:0]
}

// Len returns the number of requests inside the current window
func (dw *DualWindow) Len() int {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.prune(dw.clock.Now())
	return len(dw.requests)
}

// sleep clamps d at zero, adds the margin and sleeps
func (dw *DualWindow) sleep(limit string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	d += dw.margin
	if dw.onWait != nil {
		dw.onWait(limit, d)
	}
	dw.clock.Sleep(d)
}

// prune drops timestamps that are window or more older than now and keeps
// the rest sorted even if the wall clock stepped backwards.
func (dw *DualWindow) prune(now time.Time) {
	kept := dw.requests[:0]
	for _, t := range dw.requests {
		if now.Sub(t) < dw.window {
			kept = append(kept, t)
		}
	}
	dw.requests = kept
	slices.SortFunc(dw.requests, func(a, b time.Time) int { return a.Compare(b) })
}
