package format

import (
	"errors"
	"testing"
)

func TestRenderTeX(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		display  bool
		expected string
	}{
		{"superscript", "x^2", false, "x²"},
		{"greek", `\alpha + \beta`, false, "α + β"},
		{"simple fraction", `\frac{a}{b}`, false, "a/b"},
		{"compound fraction", `\frac{a+1}{b}`, false, "(a+1)/b"},
		{"sqrt single", `\sqrt{x}`, false, "√x"},
		{"sqrt compound", `\sqrt{x+1}`, false, "√(x+1)"},
		{"subscript group", "x_{i}", false, "xᵢ"},
		{"superscript fallback single", "x^{q}", false, "x^q"},
		{"superscript fallback group", `e^{i\pi}`, false, "e^(iπ)"},
		{"text command", `\text{area} = \pi r^2`, false, "area = π r²"},
		{"left right dropped", `\left( x \right)`, false, "( x )"},
		{"sum with limits", `\sum_{i=1}^{n} i`, false, "∑ᵢ₌₁ⁿ i"},
		{"display trims", "  E = mc^2  ", true, "E = mc²"},
		{"escaped brace", `\{1\}`, false, "{1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTeX(tt.formula, tt.display)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRenderTeXErrors(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		err     error
	}{
		{"empty", "", ErrEmptyFormula},
		{"blank", "   ", ErrEmptyFormula},
		{"unclosed group", "{x", ErrUnbalancedBraces},
		{"stray close", "x}", ErrUnbalancedBraces},
		{"unknown command", `\foo`, ErrUnsupportedCommand},
		{"missing argument", `\frac{a}`, ErrMissingArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderTeX(tt.formula, false)
			if !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
		})
	}
}
