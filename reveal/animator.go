package reveal

import (
	"sync"
	"time"

	"docchat/config"
)

// Timer is the handle returned by Clock.AfterFunc
type Timer interface {
	Stop() bool
}

// Clock abstracts time so reveals can be driven deterministically
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}

// Animator runs a reveal against a clock and calls back once when it ends.
// It is safe for concurrent use.
type Animator struct {
	mu       sync.Mutex
	clock    Clock
	timeline Timeline
	timer    Timer
	started  time.Time
	elapsed  time.Duration // frozen elapsed time once stopped or finished
	gen      uint64
	running  bool
	fired    bool
}

func NewAnimator(content string, opts Options, clock Clock) *Animator {
	if clock == nil {
		clock = SystemClock
	}
	return &Animator{
		clock:    clock,
		timeline: NewTimeline(content, opts),
	}
}

// Start arms a single timer for the full reveal. onComplete runs once, on the
// timer's goroutine, unless Stop or Reset happens first. Starting again
// cancels the previous run.
func (a *Animator) Start(onComplete func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.fired = false
	a.elapsed = 0
	a.started = a.clock.Now()
	a.running = true

	gen := a.gen
	total := a.timeline.Total()
	a.timer = a.clock.AfterFunc(total, func() {
		a.complete(gen, onComplete)
	})

	if config.DebugLog != nil {
		config.DebugLog.Printf("[reveal] animator started: %d units, total %s", len(a.timeline.Units), total)
	}
}

func (a *Animator) complete(gen uint64, onComplete func()) {
	a.mu.Lock()
	if gen != a.gen || a.fired {
		a.mu.Unlock()
		return
	}
	a.fired = true
	a.running = false
	a.timer = nil
	a.elapsed = a.timeline.Total()
	a.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

// Stop tears the reveal down; a pending completion never fires
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Animator) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.running {
		a.elapsed = a.clock.Now().Sub(a.started)
	}
	a.running = false
	a.gen++
}

// Reset stops any running reveal and re-tokenizes new content
func (a *Animator) Reset(content string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.timeline = NewTimeline(content, a.timeline.Options)
	a.fired = false
	a.elapsed = 0
}

// Timeline returns the current schedule
func (a *Animator) Timeline() Timeline {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeline
}

// Elapsed returns reveal time so far, capped at the total
func (a *Animator) Elapsed() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elapsedLocked()
}

func (a *Animator) elapsedLocked() time.Duration {
	elapsed := a.elapsed
	if a.running {
		elapsed = a.clock.Now().Sub(a.started)
	}
	if total := a.timeline.Total(); elapsed > total {
		return total
	}
	return elapsed
}

// Progress returns unit i's progress right now
func (a *Animator) Progress(i int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeline.Progress(i, a.elapsedLocked())
}

// VisibleCount returns how many units have started appearing
func (a *Animator) VisibleCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeline.VisibleCount(a.elapsedLocked())
}

// Running reports whether a reveal is in flight
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Done reports whether the completion callback has fired
func (a *Animator) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fired
}

// Render returns the terminal text visible right now
func (a *Animator) Render(width int) string {
	a.mu.Lock()
	tl, elapsed := a.timeline, a.elapsedLocked()
	a.mu.Unlock()
	return tl.Render(elapsed, width)
}
