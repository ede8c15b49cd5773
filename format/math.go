package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormulaRenderer turns a TeX formula into display text.
// display is true for block ($$) math.
type FormulaRenderer func(formula string, display bool) (string, error)

var (
	ErrEmptyFormula       = errors.New("empty formula")
	ErrUnbalancedBraces   = errors.New("unbalanced braces")
	ErrMissingArgument    = errors.New("missing argument")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// RenderTeX converts a practical TeX subset into Unicode terminal text
func RenderTeX(formula string, display bool) (string, error) {
	if strings.TrimSpace(formula) == "" {
		return "", ErrEmptyFormula
	}

	p := &texParser{src: formula}
	out, err := p.sequence(false)
	if err != nil {
		return "", fmt.Errorf("failed to render formula %q: %w", formula, err)
	}

	out = collapseSpaces(out)
	if display {
		return strings.TrimSpace(out), nil
	}
	return out, nil
}

type texParser struct {
	src string
	pos int
}

func (p *texParser) peek() (rune, int) {
	if p.pos >= len(p.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(p.src[p.pos:])
}

// sequence consumes atoms until end of input or, inside a group, the closing brace
func (p *texParser) sequence(inGroup bool) (string, error) {
	var b strings.Builder
	for {
		r, size := p.peek()
		if size == 0 {
			if inGroup {
				return "", ErrUnbalancedBraces
			}
			return b.String(), nil
		}

		switch r {
		case '}':
			if !inGroup {
				return "", ErrUnbalancedBraces
			}
			p.pos += size
			return b.String(), nil
		case '^', '_':
			p.pos += size
			arg, err := p.argument()
			if err != nil {
				return "", err
			}
			b.WriteString(script(arg, r == '^'))
		default:
			s, err := p.atom()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
}

// atom consumes one group, command or character
func (p *texParser) atom() (string, error) {
	r, size := p.peek()
	switch r {
	case '{':
		p.pos += size
		return p.sequence(true)
	case '\\':
		p.pos += size
		return p.command()
	case '&':
		p.pos += size
		return " ", nil
	}
	p.pos += size
	return string(r), nil
}

// argument consumes the next required argument, skipping leading spaces
func (p *texParser) argument() (string, error) {
	for {
		r, size := p.peek()
		if size == 0 {
			return "", ErrMissingArgument
		}
		if !unicode.IsSpace(r) {
			break
		}
		p.pos += size
	}
	if r, _ := p.peek(); r == '}' {
		return "", ErrUnbalancedBraces
	}
	return p.atom()
}

func (p *texParser) command() (string, error) {
	start := p.pos
	for {
		r, size := p.peek()
		if size == 0 || !unicode.IsLetter(r) {
			break
		}
		p.pos += size
	}
	name := p.src[start:p.pos]

	if name == "" {
		r, size := p.peek()
		if size == 0 {
			return "", fmt.Errorf("%w: trailing backslash", ErrUnsupportedCommand)
		}
		p.pos += size
		switch r {
		case ',', ';', ':', ' ', '!':
			return " ", nil
		case '\\':
			return "; ", nil
		}
		return string(r), nil
	}

	if sym, ok := texSymbols[name]; ok {
		return sym, nil
	}

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := p.argument()
		if err != nil {
			return "", err
		}
		den, err := p.argument()
		if err != nil {
			return "", err
		}
		return wrapOperand(num) + "/" + wrapOperand(den), nil
	case "sqrt":
		index := ""
		if r, size := p.peek(); r == '[' {
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated sqrt index", ErrUnsupportedCommand)
			}
			index = p.src[p.pos+size : p.pos+end]
			p.pos += end + 1
		}
		arg, err := p.argument()
		if err != nil {
			return "", err
		}
		if index != "" {
			return script(index, true) + "√" + wrapOperand(arg), nil
		}
		return "√" + wrapOperand(arg), nil
	case "text", "mathrm", "mathbf", "mathit", "mathsf", "mathtt", "textbf", "textit", "operatorname", "boldsymbol":
		return p.argument()
	case "left", "right", "big", "Big", "bigg", "Bigg", "displaystyle", "limits":
		return "", nil
	case "hat", "bar", "vec", "dot", "tilde", "overline":
		arg, err := p.argument()
		if err != nil {
			return "", err
		}
		return arg + texAccents[name], nil
	}

	return "", fmt.Errorf("%w \\%s", ErrUnsupportedCommand, name)
}

// wrapOperand parenthesizes anything longer than a single rune
func wrapOperand(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= 1 {
		return s
	}
	return "(" + s + ")"
}

// script maps s onto Unicode super- or subscripts, falling back to ^(s) / _(s)
func script(s string, super bool) string {
	table, mark := subscripts, "_"
	if super {
		table, mark = superscripts, "^"
	}

	var b strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			if utf8.RuneCountInString(s) == 1 {
				return mark + s
			}
			return mark + "(" + s + ")"
		}
		b.WriteRune(m)
	}
	return b.String()
}

func collapseSpaces(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'a': 'ᵃ', 'b': 'ᵇ', 'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ',
	'f': 'ᶠ', 'g': 'ᵍ', 'h': 'ʰ', 'i': 'ⁱ', 'j': 'ʲ',
	'k': 'ᵏ', 'l': 'ˡ', 'm': 'ᵐ', 'n': 'ⁿ', 'o': 'ᵒ',
	'p': 'ᵖ', 'r': 'ʳ', 's': 'ˢ', 't': 'ᵗ', 'u': 'ᵘ',
	'v': 'ᵛ', 'w': 'ʷ', 'x': 'ˣ', 'y': 'ʸ', 'z': 'ᶻ',
	'T': 'ᵀ', '′': '′', '*': '*',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
	'a': 'ₐ', 'e': 'ₑ', 'h': 'ₕ', 'i': 'ᵢ', 'j': 'ⱼ',
	'k': 'ₖ', 'l': 'ₗ', 'm': 'ₘ', 'n': 'ₙ', 'o': 'ₒ',
	'p': 'ₚ', 'r': 'ᵣ', 's': 'ₛ', 't': 'ₜ', 'u': 'ᵤ',
	'v': 'ᵥ', 'x': 'ₓ',
}

var texAccents = map[string]string{
	"hat":      "̂",
	"bar":      "̄",
	"vec":      "⃗",
	"dot":      "̇",
	"tilde":    "̃",
	"overline": "̅",
}

var texSymbols = map[string]string{
	// lowercase greek
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν",
	"xi": "ξ", "pi": "π", "varpi": "ϖ", "rho": "ρ", "sigma": "σ",
	"tau": "τ", "upsilon": "υ", "phi": "φ", "varphi": "φ", "chi": "χ",
	"psi": "ψ", "omega": "ω",
	// uppercase greek
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ",
	"Omega": "Ω",
	// operators
	"sum": "∑", "prod": "∏", "int": "∫", "iint": "∬", "oint": "∮",
	"partial": "∂", "nabla": "∇", "infty": "∞", "pm": "±", "mp": "∓",
	"times": "×", "div": "÷", "cdot": "·", "ast": "∗", "circ": "∘",
	"cup": "∪", "cap": "∩", "setminus": "∖", "oplus": "⊕", "otimes": "⊗",
	// relations
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃", "propto": "∝",
	"ll": "≪", "gg": "≫", "in": "∈", "notin": "∉", "subset": "⊂",
	"subseteq": "⊆", "supset": "⊃", "supseteq": "⊇", "perp": "⊥",
	"parallel": "∥", "mid": "∣",
	// arrows
	"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "leftrightarrow": "↔", "Leftrightarrow": "⇔",
	"mapsto": "↦", "implies": "⟹", "iff": "⟺",
	// logic and sets
	"forall": "∀", "exists": "∃", "neg": "¬", "land": "∧", "lor": "∨",
	"emptyset": "∅", "varnothing": "∅",
	// misc
	"ldots": "…", "cdots": "⋯", "dots": "…", "prime": "′", "degree": "°",
	"angle": "∠", "hbar": "ℏ", "ell": "ℓ", "Re": "ℜ", "Im": "ℑ",
	"langle": "⟨", "rangle": "⟩", "lfloor": "⌊", "rfloor": "⌋",
	"lceil": "⌈", "rceil": "⌉", "quad": "  ", "qquad": "    ",
	// named functions
	"sin": "sin", "cos": "cos", "tan": "tan", "log": "log", "ln": "ln",
	"exp": "exp", "lim": "lim", "max": "max", "min": "min", "det": "det",
	"arcsin": "arcsin", "arccos": "arccos", "arctan": "arctan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
}
