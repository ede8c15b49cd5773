package reveal

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultFrameRate is how often a running reveal repaints
const DefaultFrameRate = time.Second / 30

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// FrameMsg asks a running reveal to advance and repaint
type FrameMsg struct {
	ID   int
	Time time.Time
	tag  int
}

type completeMsg struct {
	ID  int
	tag int
}

// CompletedMsg is sent once when a reveal finishes
type CompletedMsg struct {
	ID int
}

// Model is a bubbletea component revealing content unit by unit.
//
// Every Start or Stop bumps an internal tag so ticks from an earlier run are
// ignored. That makes Stop a teardown: no CompletedMsg follows it.
type Model struct {
	FrameRate time.Duration
	Width     int

	id       int
	tag      int
	timeline Timeline
	started  time.Time
	elapsed  time.Duration
	running  bool
	done     bool
}

func New(content string, opts Options) Model {
	return Model{
		FrameRate: DefaultFrameRate,
		id:        nextID(),
		timeline:  NewTimeline(content, opts),
	}
}

// ID returns the unique identifier of this reveal
func (m Model) ID() int {
	return m.id
}

// Start begins the reveal. The returned command schedules the completion
// tick and the first frame.
func (m Model) Start() (Model, tea.Cmd) {
	m.tag++
	m.started = time.Now()
	m.elapsed = 0
	m.running = true
	m.done = false
	return m, tea.Batch(m.completeTick(), m.frameTick())
}

// Stop tears the reveal down without completing it
func (m Model) Stop() Model {
	m.tag++
	m.running = false
	return m
}

// Finish jumps to the end and reports completion if that has not happened yet
func (m Model) Finish() (Model, tea.Cmd) {
	m.tag++
	m.running = false
	m.elapsed = m.timeline.Total()
	if m.done {
		return m, nil
	}
	m.done = true
	return m, m.completed()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if msg.ID != m.id || msg.tag != m.tag || !m.running {
			return m, nil
		}
		m.elapsed = msg.Time.Sub(m.started)
		if m.elapsed >= m.timeline.Total() {
			m.elapsed = m.timeline.Total()
			return m, nil
		}
		return m, m.frameTick()

	case completeMsg:
		if msg.ID != m.id || msg.tag != m.tag || !m.running || m.done {
			return m, nil
		}
		m.done = true
		m.running = false
		m.elapsed = m.timeline.Total()
		return m, m.completed()
	}

	return m, nil
}

func (m Model) completeTick() tea.Cmd {
	id, tag := m.id, m.tag
	return tea.Tick(m.timeline.Total(), func(time.Time) tea.Msg {
		return completeMsg{ID: id, tag: tag}
	})
}

func (m Model) frameTick() tea.Cmd {
	id, tag := m.id, m.tag
	rate := m.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return tea.Tick(rate, func(t time.Time) tea.Msg {
		return FrameMsg{ID: id, Time: t, tag: tag}
	})
}

func (m Model) completed() tea.Cmd {
	id := m.id
	return func() tea.Msg {
		return CompletedMsg{ID: id}
	}
}

// View renders the currently visible units
func (m Model) View() string {
	return m.timeline.Render(m.elapsed, m.Width)
}

func (m Model) Units() []Unit {
	return m.timeline.Units
}

func (m Model) Timeline() Timeline {
	return m.timeline
}

func (m Model) Progress(i int) float64 {
	return m.timeline.Progress(i, m.elapsed)
}

func (m Model) VisibleCount() int {
	return m.timeline.VisibleCount(m.elapsed)
}

func (m Model) Elapsed() time.Duration {
	return m.elapsed
}

func (m Model) Running() bool {
	return m.running
}

// Done reports whether the reveal has completed
func (m Model) Done() bool {
	return m.done
}
