package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock only moves when the limiter sleeps
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// maxInSpan returns the largest number of timestamps inside any half-open
// span (t-span, t] ending at one of the timestamps.
func maxInSpan(stamps []time.Time, span time.Duration) int {
	maxCount := 0
	for i, end := range stamps {
		count := 0
		for j := 0; j <= i; j++ {
			if end.Sub(stamps[j]) < span {
				count++
			}
		}
		if count > maxCount {
			maxCount = count
		}
	}
	return maxCount
}

func TestDualWindowBurstUnderCap(t *testing.T) {
	clock := newFakeClock()
	dw := NewDefault(WithClock(clock))

	for i := 0; i < DefaultPerSecond; i++ {
		dw.Wait()
	}

	assert.Empty(t, clock.sleeps, "no sleep expected below the per-second cap")
	assert.Equal(t, DefaultPerSecond, dw.Len())
}

func TestDualWindowPerSecondSleep(t *testing.T) {
	clock := newFakeClock()
	dw := NewDefault(WithClock(clock))

	for i := 0; i < DefaultPerSecond; i++ {
		dw.Wait()
	}
	dw.Wait()

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, time.Second+DefaultMargin, clock.sleeps[0])
}

func TestDualWindowClampsNegativeSleep(t *testing.T) {
	clock := newFakeClock()
	dw := NewDualWindow(2, 100, time.Minute, WithClock(clock), WithMargin(50*time.Millisecond))

	dw.Wait()
	dw.Wait()
	clock.advance(5 * time.Second)
	dw.Wait()

	// The second most recent stamp is already older than a second, so only the margin is slept.
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 50*time.Millisecond, clock.sleeps[0])
}

func TestDualWindowWindowCap(t *testing.T) {
	clock := newFakeClock()
	var waits []string
	dw := NewDualWindow(1000, 5, 10*time.Second,
		WithClock(clock),
		WithMargin(0),
		WithOnWait(func(limit string, d time.Duration) { waits = append(waits, limit) }),
	)

	for i := 0; i < 5; i++ {
		dw.Wait()
		clock.advance(time.Second)
	}
	start := clock.Now()
	dw.Wait()

	require.Equal(t, []string{LimitPerWindow}, waits)
	// oldest stamp is at t0, now is t0+5s, window is 10s
	assert.Equal(t, 5*time.Second, clock.sleeps[0])
	assert.Equal(t, start.Add(5*time.Second), clock.Now())
	assert.Equal(t, 5, dw.Len())
}

// lazyClock under-sleeps, the way a coarse timer or a skewed clock can
type lazyClock struct {
	*fakeClock
}

func (c lazyClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d / 2)
}

func TestDualWindowLoopsUntilWindowHasRoom(t *testing.T) {
	clock := lazyClock{newFakeClock()}
	dw := NewDualWindow(1000, 3, 10*time.Second, WithClock(clock), WithMargin(time.Millisecond))

	base := clock.Now()
	dw.requests = append(dw.requests, base, base, base)
	clock.advance(time.Second)

	dw.Wait()

	assert.Greater(t, len(clock.sleeps), 1, "one short sleep must not satisfy the window cap")
	assert.False(t, clock.Now().Before(base.Add(10*time.Second)))
	assert.Equal(t, 1, dw.Len())
}

func TestDualWindowInvariants(t *testing.T) {
	clock := newFakeClock()
	dw := NewDefault(WithClock(clock))

	var stamps []time.Time
	for i := 0; i < 350; i++ {
		dw.Wait()
		stamps = append(stamps, clock.Now())
		if i%7 == 0 {
			clock.advance(30 * time.Millisecond)
		}
	}

	assert.LessOrEqual(t, maxInSpan(stamps, time.Second), DefaultPerSecond)
	assert.LessOrEqual(t, maxInSpan(stamps, DefaultWindow), DefaultPerWindow)

	for i := 1; i < len(stamps); i++ {
		assert.False(t, stamps[i].Before(stamps[i-1]), "timestamps must be non-decreasing")
	}
}

func TestDualWindowAllow(t *testing.T) {
	clock := newFakeClock()
	dw := NewDualWindow(3, 5, 10*time.Second, WithClock(clock))

	for i := 0; i < 3; i++ {
		assert.True(t, dw.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, dw.Allow(), "per-second cap reached")

	clock.advance(time.Second)
	assert.True(t, dw.Allow())
	assert.True(t, dw.Allow())
	assert.False(t, dw.Allow(), "window cap reached")

	clock.advance(10 * time.Second)
	assert.True(t, dw.Allow(), "window slid past all stamps")
	assert.Empty(t, clock.sleeps, "Allow never sleeps")
}

func TestDualWindowReset(t *testing.T) {
	clock := newFakeClock()
	dw := NewDefault(WithClock(clock))

	for i := 0; i < 10; i++ {
		dw.Wait()
	}
	dw.Reset()

	assert.Equal(t, 0, dw.Len())
}

func TestDualWindowRealClock(t *testing.T) {
	dw := NewDualWindow(2, 10, time.Minute, WithMargin(10*time.Millisecond))

	start := time.Now()
	for i := 0; i < 3; i++ {
		dw.Wait()
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, time.Second, "third request must wait out the one-second span")
	assert.Less(t, elapsed, 3*time.Second)
}
