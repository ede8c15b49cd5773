package ui

import (
	"fmt"
	"strings"

	"docchat/format"
	appmodel "docchat/model"
)

const cardBar = "┃"

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// contentWidth is the width answers are laid out in
func (a AppView) contentWidth() int {
	return max(a.viewport.Width-2, 20)
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.dataModel.Messages) == 0 {
		a.viewport.SetContent(a.renderEmptyState())
		return
	}

	width := a.contentWidth()
	if width != a.renderWidth {
		clear(a.rendered)
		a.renderWidth = width
	}

	var content strings.Builder
	for _, msg := range a.dataModel.Messages {
		if msg.IsUser {
			content.WriteString(a.renderQuestionCard(msg, width))
		} else {
			content.WriteString(a.renderAnswerCard(msg, width))
		}
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a AppView) renderEmptyState() string {
	lines := []string{
		"No questions yet.",
		"",
		fmt.Sprintf("Attach a document with %s (or pick a recent one with %s),",
			a.kb.DisplayActionKey("attach_file"), a.kb.DisplayActionKey("recent_documents")),
		"then ask a question about it and press Enter.",
	}
	return DimStyle.Render(strings.Join(lines, "\n"))
}

func (a AppView) renderQuestionCard(msg appmodel.Message, width int) string {
	bar := UserStyle.Render(cardBar)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", bar, UserStyle.Render("You"), DimStyle.Render(msg.Timestamp.Format("[15:04]")))
	for _, line := range strings.Split(wordWrap(msg.Text, width-2), "\n") {
		fmt.Fprintf(&b, "%s %s\n", bar, line)
	}
	if len(msg.Documents) > 0 {
		fmt.Fprintf(&b, "%s %s\n", bar, DimStyle.Render(truncate("Asked about: "+strings.Join(msg.Documents, ", "), width-2)))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *AppView) renderAnswerCard(msg appmodel.Message, width int) string {
	header := AnswerStyle.Render("Answer")
	if !msg.IsGenerating {
		header += " " + DimStyle.Render(msg.Timestamp.Format("[15:04]"))
	}

	var body string
	switch {
	case msg.IsGenerating:
		body = a.loadingSpinner.View() + " " + DimStyle.Render("Explaining")
	case msg.Failed:
		body = ErrorStyle.Render(wordWrap(msg.Text, width))
	default:
		if r, ok := a.reveals[msg.ID]; ok {
			body = r.View()
		} else {
			body = a.staticAnswer(msg, width)
		}
	}

	return header + "\n" + body + "\n\n"
}

// staticAnswer returns the fully rendered answer, with formulas resolved
func (a *AppView) staticAnswer(msg appmodel.Message, width int) string {
	if out, ok := a.rendered[msg.ID]; ok {
		return out
	}
	out := renderAnswer(msg.Text, width)
	a.rendered[msg.ID] = out
	return out
}

func renderAnswer(text string, width int) string {
	r := format.NewRenderer(width, format.RenderTeX)
	return r.RenderResolved(format.Parse(text)).String()
}
