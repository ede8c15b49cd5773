package format

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

var ansiRegex = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func TestRendererRenderResolved(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"empty", "", 80, ""},
		{"paragraph with math", "Explain **this** formula $x^2$", 80, "Explain this formula x²"},
		{"numbered labels", "3. a\n4. b", 80, "3. a\n4. b"},
		{"bullets", "- a\n* b", 80, "• a\n• b"},
		{"blank line between blocks", "first\n\nsecond", 80, "first\n\nsecond"},
		{"wraps to width", "aaa bbb ccc ddd", 10, "aaa bbb\nccc ddd"},
		{"no wrap when width is zero", "aaa bbb ccc ddd", 0, "aaa bbb ccc ddd"},
		{"indented paragraph", "    deep", 80, "    deep"},
		{"hard line breaks kept", "one\ntwo", 80, "one\ntwo"},
		{"block math", "$$x^2$$", 80, "  x²"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(tt.width, RenderTeX)
			got := stripANSI(r.RenderResolved(Parse(tt.input)).String())
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRendererListContinuationIndent(t *testing.T) {
	r := NewRenderer(14, RenderTeX)
	got := stripANSI(r.RenderResolved(Parse("1. alpha beta gamma")).String())

	want := "1. alpha beta\n   gamma"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRendererCodeBlock(t *testing.T) {
	r := NewRenderer(40, RenderTeX)
	got := stripANSI(r.RenderResolved(Parse("```go\nif a {\n\treturn\n}\n```")).String())

	if !strings.Contains(got, "[go]") {
		t.Errorf("missing language label in %q", got)
	}
	if !strings.Contains(got, "if a {\n\treturn\n}") {
		t.Errorf("code body not verbatim in %q", got)
	}
}

func TestDeferredFormulaResolution(t *testing.T) {
	r := NewRenderer(80, RenderTeX)
	view := r.Render(Parse("area $\\pi r^2$ and $\\foo$"))

	if got := stripANSI(view.String()); got != "area $\\pi r^2$ and $\\foo$" {
		t.Errorf("before resolve: got %q", got)
	}

	nodes := view.Formulas()
	if len(nodes) != 2 {
		t.Fatalf("got %d formula nodes, want 2", len(nodes))
	}

	errs := ResolveFormulas(nodes, RenderTeX)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if !errors.Is(errs[0], ErrUnsupportedCommand) {
		t.Errorf("unexpected error: %v", errs[0])
	}

	if got := stripANSI(view.String()); got != "area π r² and $\\foo$" {
		t.Errorf("after resolve: got %q", got)
	}
	if !nodes[0].Resolved() || nodes[0].Err != nil {
		t.Errorf("first node should be resolved without error")
	}
	if nodes[1].Err == nil || nodes[1].Text() != "$\\foo$" {
		t.Errorf("failed node should keep its source, got %q", nodes[1].Text())
	}
}

func TestResolveFormulasWithoutRenderer(t *testing.T) {
	view := NewRenderer(80, nil).Render(Parse("$x$"))

	errs := ResolveFormulas(view.Formulas(), nil)
	if len(errs) != 1 || !errors.Is(errs[0], ErrNoFormulaRenderer) {
		t.Fatalf("got %v, want ErrNoFormulaRenderer", errs)
	}
	if got := stripANSI(view.String()); got != "$x$" {
		t.Errorf("got %q, want source", got)
	}
}
