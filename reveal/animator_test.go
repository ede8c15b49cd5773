package reveal

import (
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var ansiRegex = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due timers synchronously
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

var testOptions = Options{Duration: 500 * time.Millisecond, Stagger: 200 * time.Millisecond}

func TestAnimatorCompletesOnceAtTotal(t *testing.T) {
	clock := newFakeClock()
	a := NewAnimator("one two three four five", testOptions, clock)

	var calls int32
	a.Start(func() { atomic.AddInt32(&calls, 1) })

	if got := clock.pending(); got != 1 {
		t.Fatalf("expected exactly one armed timer, got %d", got)
	}

	clock.Advance(1299 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("callback fired early: %d calls", got)
	}
	if a.Done() {
		t.Errorf("animator reports done before total time")
	}

	clock.Advance(time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("got %d calls at total time, want 1", got)
	}

	clock.Advance(10 * time.Second)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("callback fired again: %d calls", got)
	}
	if !a.Done() || a.Running() {
		t.Errorf("expected done and not running")
	}
}

func TestAnimatorStopPreventsCallback(t *testing.T) {
	clock := newFakeClock()
	a := NewAnimator("one two three", testOptions, clock)

	var calls int32
	a.Start(func() { atomic.AddInt32(&calls, 1) })

	clock.Advance(testOptions.Stagger)
	a.Stop()
	clock.Advance(10 * time.Second)

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("callback fired after Stop: %d calls", got)
	}
	if got := a.Elapsed(); got != testOptions.Stagger {
		t.Errorf("elapsed should freeze at stop: got %s", got)
	}
}

func TestAnimatorResetCancelsPending(t *testing.T) {
	clock := newFakeClock()
	a := NewAnimator("one two three", testOptions, clock)

	var calls int32
	a.Start(func() { atomic.AddInt32(&calls, 1) })
	clock.Advance(100 * time.Millisecond)
	a.Reset("new content")
	clock.Advance(10 * time.Second)

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("callback fired after Reset: %d calls", got)
	}
	if got := len(a.Timeline().Units); got != 2 {
		t.Errorf("units after reset: got %d, want 2", got)
	}
	if a.Elapsed() != 0 {
		t.Errorf("elapsed should be zero after reset")
	}
}

func TestAnimatorRestartOnlyLatestFires(t *testing.T) {
	clock := newFakeClock()
	a := NewAnimator("one two", testOptions, clock)

	var first, second int32
	a.Start(func() { atomic.AddInt32(&first, 1) })
	clock.Advance(100 * time.Millisecond)
	a.Start(func() { atomic.AddInt32(&second, 1) })
	clock.Advance(10 * time.Second)

	if atomic.LoadInt32(&first) != 0 || atomic.LoadInt32(&second) != 1 {
		t.Errorf("got first=%d second=%d, want 0 and 1", first, second)
	}
}

func TestAnimatorEmptyContent(t *testing.T) {
	clock := newFakeClock()
	a := NewAnimator("   ", testOptions, clock)

	var calls int32
	a.Start(func() { atomic.AddInt32(&calls, 1) })
	clock.Advance(0)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("empty reveal should complete immediately, got %d calls", got)
	}
}

func TestAnimatorProgress(t *testing.T) {
	clock := newFakeClock()
	a := NewAnimator("one two three", testOptions, clock)
	a.Start(nil)

	clock.Advance(450 * time.Millisecond)
	if got := a.VisibleCount(); got != 3 {
		t.Errorf("visible: got %d, want 3", got)
	}
	if got := a.Progress(1); got != 0.5 {
		t.Errorf("progress of unit 1: got %v, want 0.5", got)
	}
	if got := stripANSI(a.Render(80)); got != "one two three" {
		t.Errorf("render: got %q", got)
	}
}
