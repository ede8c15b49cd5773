package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "report.pdf", 20, "report.pdf"},
		{"ellipsis", "quarterly-report.pdf", 10, "quarter..."},
		{"tiny", "quarterly", 2, "qu"},
		{"wide runes", "報告書の要約です", 7, "報告..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("the quick brown fox jumps\n\nover the dog", 10)
	want := "the quick\nbrown fox\njumps\n\nover the\ndog"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}

	for _, line := range strings.Split(wordWrap("数据 分析 报告 总结 结论", 8), "\n") {
		if w := runewidth.StringWidth(line); w > 8 {
			t.Errorf("line %q is %d columns wide", line, w)
		}
	}
}

func TestModalWidthFor(t *testing.T) {
	tests := []struct {
		desired, width, want int
	}{
		{0, 200, 60},
		{80, 200, 80},
		{80, 50, 40},
		{80, 12, 10},
	}

	for _, tt := range tests {
		if got := modalWidthFor(tt.desired, tt.width); got != tt.want {
			t.Errorf("modalWidthFor(%d, %d) = %d, want %d", tt.desired, tt.width, got, tt.want)
		}
	}
}

func TestFormatFooter(t *testing.T) {
	got := FormatFooter("Enter", "Open", "Esc", "Close")
	for _, want := range []string{"Enter", "Open", "Esc", "Close"} {
		if !strings.Contains(got, want) {
			t.Errorf("footer %q missing %q", got, want)
		}
	}

	if got := FormatFooter("dangling"); got != "" {
		t.Errorf("odd part should be dropped, got %q", got)
	}
}
