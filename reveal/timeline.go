package reveal

import (
	"time"

	"docchat/format"
)

const (
	DefaultDuration = 500 * time.Millisecond
	DefaultStagger  = 200 * time.Millisecond
)

// Options control reveal pacing
type Options struct {
	Duration time.Duration // transition time of one unit
	Stagger  time.Duration // delay between the starts of consecutive units
}

func DefaultOptions() Options {
	return Options{Duration: DefaultDuration, Stagger: DefaultStagger}
}

func (o Options) normalized() Options {
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Stagger < 0 {
		o.Stagger = 0
	}
	return o
}

// Timeline is the pure schedule of a reveal: unit i starts at i*Stagger and
// finishes Duration later.
type Timeline struct {
	Units []Unit
	Options
}

func NewTimeline(content string, opts Options) Timeline {
	return Timeline{Units: Tokenize(content), Options: opts.normalized()}
}

// Total is the time until the last unit has finished its transition
func (t Timeline) Total() time.Duration {
	n := len(t.Units)
	if n == 0 {
		return 0
	}
	return time.Duration(n-1)*t.Stagger + t.Duration
}

// StartOf returns when unit i begins to appear
func (t Timeline) StartOf(i int) time.Duration {
	return time.Duration(i) * t.Stagger
}

// Progress returns unit i's transition progress in [0,1] at elapsed
func (t Timeline) Progress(i int, elapsed time.Duration) float64 {
	if i < 0 || i >= len(t.Units) {
		return 0
	}
	d := elapsed - t.StartOf(i)
	if d <= 0 {
		return 0
	}
	if t.Duration <= 0 || d >= t.Duration {
		return 1
	}
	return float64(d) / float64(t.Duration)
}

// VisibleCount returns how many units have started appearing at elapsed
func (t Timeline) VisibleCount(elapsed time.Duration) int {
	n := len(t.Units)
	if elapsed <= 0 || n == 0 {
		return 0
	}
	if t.Stagger <= 0 {
		return n
	}
	count := int((elapsed + t.Stagger - 1) / t.Stagger)
	if count > n {
		return n
	}
	return count
}

// Done reports whether every unit is fully visible at elapsed
func (t Timeline) Done(elapsed time.Duration) bool {
	return elapsed >= t.Total()
}

// MarkupUnits pairs each unit's markup with its progress at elapsed
func (t Timeline) MarkupUnits(elapsed time.Duration) []format.MarkupUnit {
	out := make([]format.MarkupUnit, len(t.Units))
	for i, u := range t.Units {
		out[i] = format.MarkupUnit{Markup: u.Markup, Progress: t.Progress(i, elapsed)}
	}
	return out
}

// Render returns the terminal text visible at elapsed
func (t Timeline) Render(elapsed time.Duration, width int) string {
	return format.RenderMarkup(t.MarkupUnits(elapsed), width)
}
