package reveal

import (
	"testing"
	"time"
)

func TestModelIDsAreUnique(t *testing.T) {
	a := New("a", DefaultOptions())
	b := New("a", DefaultOptions())
	if a.ID() == b.ID() {
		t.Errorf("expected distinct ids, both were %d", a.ID())
	}
}

func TestModelCompletesOnce(t *testing.T) {
	m := New("a b c", Options{Duration: 100 * time.Millisecond, Stagger: 50 * time.Millisecond})
	m, cmd := m.Start()
	if cmd == nil {
		t.Fatal("Start should schedule ticks")
	}

	done := completeMsg{ID: m.ID(), tag: m.tag}
	m, cmd = m.Update(done)
	if cmd == nil {
		t.Fatal("completion tick should produce a command")
	}
	msg, ok := cmd().(CompletedMsg)
	if !ok || msg.ID != m.ID() {
		t.Fatalf("expected CompletedMsg for %d, got %#v", m.ID(), msg)
	}
	if !m.Done() || m.Running() {
		t.Errorf("expected done and stopped")
	}
	if got := m.VisibleCount(); got != 3 {
		t.Errorf("all units should be visible, got %d", got)
	}

	if _, cmd = m.Update(done); cmd != nil {
		t.Errorf("a repeated completion tick must not complete again")
	}
}

func TestModelStopIgnoresPendingTicks(t *testing.T) {
	m := New("a b c", DefaultOptions())
	m, _ = m.Start()
	tag := m.tag

	m = m.Stop()
	m, cmd := m.Update(completeMsg{ID: m.ID(), tag: tag})
	if cmd != nil || m.Done() {
		t.Errorf("stopped reveal must not complete")
	}
	if _, cmd = m.Update(FrameMsg{ID: m.ID(), Time: time.Now(), tag: tag}); cmd != nil {
		t.Errorf("stopped reveal must not schedule frames")
	}
}

func TestModelIgnoresOtherIDs(t *testing.T) {
	m := New("a b", DefaultOptions())
	m, _ = m.Start()

	m, cmd := m.Update(completeMsg{ID: m.ID() + 1000, tag: m.tag})
	if cmd != nil || m.Done() {
		t.Errorf("tick for another reveal must be ignored")
	}
}

func TestModelFrameAdvances(t *testing.T) {
	m := New("a b c", Options{Duration: 100 * time.Millisecond, Stagger: 50 * time.Millisecond})
	m, _ = m.Start()

	m, cmd := m.Update(FrameMsg{ID: m.ID(), Time: m.started.Add(60 * time.Millisecond), tag: m.tag})
	if cmd == nil {
		t.Errorf("running reveal should schedule the next frame")
	}
	if got := m.VisibleCount(); got != 2 {
		t.Errorf("visible: got %d, want 2", got)
	}
	if got := stripANSI(m.View()); got != "a b" {
		t.Errorf("view: got %q, want %q", got, "a b")
	}

	m, cmd = m.Update(FrameMsg{ID: m.ID(), Time: m.started.Add(time.Second), tag: m.tag})
	if cmd != nil {
		t.Errorf("frames stop once everything is visible")
	}
	if m.Done() {
		t.Errorf("only the completion tick marks the reveal done")
	}
}

func TestModelFinish(t *testing.T) {
	m := New("a b", DefaultOptions())
	m, _ = m.Start()

	m, cmd := m.Finish()
	if cmd == nil {
		t.Fatal("Finish should report completion")
	}
	if _, ok := cmd().(CompletedMsg); !ok {
		t.Errorf("expected CompletedMsg")
	}
	if _, cmd = m.Finish(); cmd != nil {
		t.Errorf("Finish twice must not complete twice")
	}
}
