package format

import (
	"errors"
	"strings"
	"unicode"

	"docchat/config"

	"github.com/mattn/go-runewidth"
)

const (
	indentUnit   = "  "
	minWrapWidth = 10
)

var ErrNoFormulaRenderer = errors.New("no formula renderer configured")

// FormulaNode is one math occurrence in a rendered view.
// Until it is resolved the view shows its source.
type FormulaNode struct {
	Formula  string
	Source   string
	Display  bool
	Rendered string
	Err      error
	resolved bool
}

// Resolved reports whether the post-render pass has visited this node
func (n *FormulaNode) Resolved() bool {
	return n.resolved
}

// Text returns what the view displays for this node
func (n *FormulaNode) Text() string {
	if n.resolved && n.Err == nil {
		return n.Rendered
	}
	return n.Source
}

// ResolveFormulas renders each node with render. Failed nodes keep their
// source visible; their errors are logged and returned.
func ResolveFormulas(nodes []*FormulaNode, render FormulaRenderer) []error {
	var errs []error
	for _, n := range nodes {
		n.resolved = true
		if render == nil {
			n.Err = ErrNoFormulaRenderer
			errs = append(errs, n.Err)
			continue
		}

		out, err := render(n.Formula, n.Display)
		if err != nil {
			n.Err = err
			n.Rendered = ""
			errs = append(errs, err)
			if config.DebugLog != nil {
				config.DebugLog.Printf("[format] formula %s left as source: %v", n.Source, err)
			}
			continue
		}
		n.Err = nil
		n.Rendered = out
	}
	return errs
}

// Renderer turns parsed documents into terminal text
type Renderer struct {
	width         int
	renderFormula FormulaRenderer
}

func NewRenderer(width int, renderFormula FormulaRenderer) *Renderer {
	return &Renderer{width: width, renderFormula: renderFormula}
}

// View is a document laid out for the terminal. Formula text is read at
// String() time, so resolving nodes after Render updates the output.
type View struct {
	doc   Document
	width int
	nodes []*FormulaNode
	bySeg map[*Segment]*FormulaNode
}

// Render lays out doc without rendering any formula
func (r *Renderer) Render(doc Document) *View {
	v := &View{
		doc:   doc,
		width: r.width,
		bySeg: make(map[*Segment]*FormulaNode),
	}
	for _, seg := range v.doc.Formulas() {
		node := &FormulaNode{
			Formula: seg.Text,
			Source:  seg.Source,
			Display: seg.Kind == SegmentBlockMath,
		}
		v.nodes = append(v.nodes, node)
		v.bySeg[seg] = node
	}
	return v
}

// RenderResolved lays out doc and renders its formulas immediately
func (r *Renderer) RenderResolved(doc Document) *View {
	v := r.Render(doc)
	ResolveFormulas(v.nodes, r.renderFormula)
	return v
}

// ResolveFormulas runs the post-render pass with the renderer's formula function
func (r *Renderer) ResolveFormulas(v *View) []error {
	return ResolveFormulas(v.nodes, r.renderFormula)
}

// Formulas returns the formula nodes of this view in document order
func (v *View) Formulas() []*FormulaNode {
	return v.nodes
}

// String renders all blocks separated by a blank line
func (v *View) String() string {
	var sections []string
	for i := range v.doc.Blocks {
		lines := v.block(&v.doc.Blocks[i])
		if len(lines) > 0 {
			sections = append(sections, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sections, "\n\n")
}

func (v *View) block(b *Block) []string {
	switch b.Kind {
	case BlockParagraph:
		prefix := strings.Repeat(indentUnit, b.Indent)
		atoms := v.appendSegments(nil, b.Segments, false, new(bool))
		return prefixLines(wrapAtoms(atoms, v.available(runewidth.StringWidth(prefix))), prefix, prefix)

	case BlockNumberedList, BlockBulletList:
		var lines []string
		for i := range b.Items {
			item := &b.Items[i]
			indent := strings.Repeat(indentUnit, item.Indent)
			label := "•"
			if b.Kind == BlockNumberedList {
				label = item.Marker + "."
			}
			labelWidth := runewidth.StringWidth(label) + 1
			first := indent + markerStyle.Render(label) + " "
			rest := indent + strings.Repeat(" ", labelWidth)

			atoms := v.appendSegments(nil, item.Segments, false, new(bool))
			wrapped := wrapAtoms(atoms, v.available(runewidth.StringWidth(indent)+labelWidth))
			lines = append(lines, prefixLines(wrapped, first, rest)...)
		}
		return lines

	case BlockCode:
		if len(b.Segments) == 0 {
			return nil
		}
		return codeFrame(b.Segments[0].Lang, b.Segments[0].Text, v.width)

	case BlockMath:
		if len(b.Segments) == 0 {
			return nil
		}
		return []string{indentUnit + v.formula(&b.Segments[0])}
	}
	return nil
}

func (v *View) available(used int) int {
	if v.width <= 0 {
		return 0
	}
	if w := v.width - used; w > minWrapWidth {
		return w
	}
	return minWrapWidth
}

func (v *View) formula(seg *Segment) string {
	node, ok := v.bySeg[seg]
	if !ok {
		return mathStyle.Render(seg.Source)
	}
	return styledFormula(node)
}

func styledFormula(n *FormulaNode) string {
	if n.Err != nil {
		return mathSourceStyle.Render(n.Source)
	}
	return mathStyle.Render(n.Text())
}

func (v *View) appendSegments(out []atom, segs []Segment, bold bool, pending *bool) []atom {
	for i := range segs {
		seg := &segs[i]
		switch seg.Kind {
		case SegmentText:
			render := unstyled
			if bold {
				render = boldStyle.Render
			}
			out = appendWords(out, seg.Text, render, pending)
		case SegmentBold:
			out = v.appendSegments(out, seg.Children, true, pending)
		case SegmentInlineMath, SegmentBlockMath:
			text := seg.Source
			if node, ok := v.bySeg[seg]; ok {
				text = node.Text()
			}
			out = append(out, atom{
				text:  v.formula(seg),
				width: runewidth.StringWidth(text),
				space: *pending,
			})
			*pending = false
		}
	}
	return out
}

// atom is an unbreakable piece of a wrapped line
type atom struct {
	text   string // styled
	width  int    // display width of the unstyled text
	space  bool   // whitespace preceded it in the source
	brk    bool   // hard line break
	indent int    // left padding when the atom starts a line
}

func unstyled(strs ...string) string { return strings.Join(strs, " ") }

func appendWords(out []atom, text string, render func(...string) string, pending *bool) []atom {
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := text[start:end]
		out = append(out, atom{
			text:  render(word),
			width: runewidth.StringWidth(word),
			space: *pending,
		})
		*pending = false
		start = -1
	}

	for i, r := range text {
		switch {
		case r == '\n':
			flush(i)
			out = append(out, atom{brk: true})
			*pending = false
		case unicode.IsSpace(r):
			flush(i)
			*pending = true
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))

	return out
}

// wrapAtoms fills lines greedily up to width columns; width <= 0 disables wrapping
func wrapAtoms(atoms []atom, width int) []string {
	var lines []string
	var cur strings.Builder
	curWidth := 0
	started := false

	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curWidth = 0
		started = false
	}

	for _, a := range atoms {
		if a.brk {
			flush()
			continue
		}

		sep := 0
		if a.space && started {
			sep = 1
		}
		if width > 0 && started && curWidth+sep+a.width > width {
			flush()
			sep = 0
		}
		if !started && a.indent > 0 {
			pad := strings.Repeat(indentUnit, a.indent)
			cur.WriteString(pad)
			curWidth += len(pad)
		}
		if sep == 1 {
			cur.WriteByte(' ')
		}
		cur.WriteString(a.text)
		curWidth += sep + a.width
		started = true
	}
	lines = append(lines, cur.String())

	return lines
}

func prefixLines(lines []string, first, rest string) []string {
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
			continue
		}
		lines[i] = rest + lines[i]
	}
	return lines
}

// codeFrame draws a labelled rule above and below the verbatim body
func codeFrame(lang, body string, width int) []string {
	label := "[code]"
	if lang != "" {
		label = "[" + lang + "]"
	}

	ruleWidth := width
	if ruleWidth <= 0 {
		ruleWidth = 40
	}
	left := (ruleWidth - len(label)) / 2
	if left < 2 {
		left = 2
	}
	right := ruleWidth - len(label) - left
	if right < 2 {
		right = 2
	}

	lines := []string{
		borderStyle.Render(strings.Repeat("━", left)) + label + borderStyle.Render(strings.Repeat("━", right)),
	}
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, codeStyle.Render(line))
	}
	lines = append(lines, borderStyle.Render(strings.Repeat("━", left+len(label)+right)))

	return lines
}
