package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"docchat/config"
	"docchat/format"
	appmodel "docchat/model"
	"docchat/reveal"
)

// submitQuestion sends the textarea content. Nothing happens for blank
// input or while an answer is pending.
func (a AppView) submitQuestion() (AppView, tea.Cmd) {
	query := a.textarea.Value()

	cmd, err := a.dataModel.Submit(query)
	if err != nil {
		return a, a.setFlash(appmodel.NoFilesMessage, true)
	}
	if cmd == nil {
		return a, nil
	}

	a.textarea.Reset()
	a.textarea.Blur()
	a.updateViewportContent(true)

	return a, tea.Batch(cmd, a.loadingSpinner.Tick)
}

// handleAnswer fills the answer card and starts its reveal
func (a AppView) handleAnswer(msg appmodel.AnswerMsg) (AppView, tea.Cmd) {
	applied := a.dataModel.ApplyAnswer(msg)
	if !a.dataModel.Generating {
		a.textarea.Focus()
	}
	if !applied {
		return a, nil
	}

	cmds := []tea.Cmd{a.dataModel.AutoSave()}

	answer := a.dataModel.MessageByID(msg.MessageID)
	switch {
	case answer == nil || answer.Revealed:
	case format.Parse(answer.Text).IsEmpty():
		// nothing to animate
		a.dataModel.MarkRevealed(answer.ID)
	default:
		cmds = append(cmds, a.startReveal(*answer))
	}

	a.updateViewportContent(true)
	return a, tea.Batch(cmds...)
}

// startReveal animates answer. Its static view is laid out now and its
// formulas resolved once the reveal completes.
func (a *AppView) startReveal(answer appmodel.Message) tea.Cmd {
	opts := reveal.Options{Duration: reveal.DefaultDuration, Stagger: reveal.DefaultStagger}
	if cfg := a.dataModel.Config; cfg != nil {
		opts = reveal.Options{Duration: cfg.RevealDuration(), Stagger: cfg.RevealStagger()}
	}

	r := reveal.New(format.Preformat(answer.Text), opts)
	r.Width = a.contentWidth()
	r, cmd := r.Start()
	a.reveals[answer.ID] = r

	renderer := format.NewRenderer(a.contentWidth(), format.RenderTeX)
	a.pending[answer.ID] = renderer.Render(format.Parse(answer.Text))

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] startReveal: answer %d, %d units over %v", answer.ID, len(r.Units()), r.Timeline().Total())
	}
	return cmd
}

// updateReveals forwards msg to every running reveal
func (a *AppView) updateReveals(msg tea.Msg) tea.Cmd {
	if len(a.reveals) == 0 {
		return nil
	}

	var cmds []tea.Cmd
	for id, r := range a.reveals {
		var cmd tea.Cmd
		r, cmd = r.Update(msg)
		a.reveals[id] = r
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// completeReveal swaps a finished reveal for the static view
func (a *AppView) completeReveal(revealID int) {
	for id, r := range a.reveals {
		if r.ID() != revealID {
			continue
		}

		delete(a.reveals, id)
		a.dataModel.MarkRevealed(id)

		if view, ok := a.pending[id]; ok {
			delete(a.pending, id)
			format.ResolveFormulas(view.Formulas(), format.RenderTeX)
			if a.renderWidth == a.contentWidth() {
				a.rendered[id] = view.String()
			}
		}
		return
	}
}

// finishReveals jumps every running reveal to its end
func (a *AppView) finishReveals() tea.Cmd {
	var cmds []tea.Cmd
	for id, r := range a.reveals {
		var cmd tea.Cmd
		r, cmd = r.Finish()
		a.reveals[id] = r
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// stopReveals tears every reveal down without completing it, used when the
// shown conversation changes
func (a *AppView) stopReveals() {
	clear(a.reveals)
	clear(a.pending)
	clear(a.rendered)
}
