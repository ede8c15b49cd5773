package format

import "strings"

// BlockKind identifies the structural type of a content block
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockNumberedList
	BlockBulletList
	BlockCode
	BlockMath
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockNumberedList:
		return "numbered-list"
	case BlockBulletList:
		return "bullet-list"
	case BlockCode:
		return "code"
	case BlockMath:
		return "math"
	}
	return "unknown"
}

// SegmentKind identifies the type of an inline segment
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentBold
	SegmentInlineMath
	SegmentBlockMath
	SegmentCode
)

// Segment is a minimal unit of parsed content.
//
// Text holds the plain text, the formula (math) or the raw code body (code).
// Source keeps the original delimited form of math segments so a failed
// formula can still be shown as written.
type Segment struct {
	Kind     SegmentKind
	Text     string
	Source   string
	Lang     string
	Children []Segment // Bold only
}

// ListItem is one entry of a numbered or bullet list
type ListItem struct {
	Marker   string // ordinal digits ("3") or bullet ("-", "*")
	Text     string
	Indent   int
	Segments []Segment
}

// Block is one structural piece of a parsed response
type Block struct {
	Kind     BlockKind
	Text     string     // Paragraph raw text
	Indent   int        // Paragraph indent level (cosmetic)
	Items    []ListItem // Numbered/bullet lists
	Segments []Segment  // Paragraph inline segments, or the single code/math segment
}

// Document is the ordered result of Parse
type Document struct {
	Blocks []Block
}

// IsEmpty reports whether the document has nothing to render
func (d Document) IsEmpty() bool {
	return len(d.Blocks) == 0
}

// Formulas returns pointers to every math segment in document order.
// Bold runs are descended into.
func (d *Document) Formulas() []*Segment {
	var out []*Segment
	for bi := range d.Blocks {
		b := &d.Blocks[bi]
		out = collectFormulas(b.Segments, out)
		for ii := range b.Items {
			out = collectFormulas(b.Items[ii].Segments, out)
		}
	}
	return out
}

func collectFormulas(segs []Segment, out []*Segment) []*Segment {
	for i := range segs {
		switch segs[i].Kind {
		case SegmentInlineMath, SegmentBlockMath:
			out = append(out, &segs[i])
		case SegmentBold:
			out = collectFormulas(segs[i].Children, out)
		}
	}
	return out
}

// PlainText returns the text of segments with all markup stripped.
// Math contributes its formula and bold contributes its content.
func PlainText(segs []Segment) string {
	var b strings.Builder
	writePlain(&b, segs)
	return b.String()
}

func writePlain(b *strings.Builder, segs []Segment) {
	for _, s := range segs {
		if s.Kind == SegmentBold {
			writePlain(b, s.Children)
			continue
		}
		b.WriteString(s.Text)
	}
}

// PlainText returns the block's text with markup stripped.
//
// A paragraph line that would read as a list item once its markup is gone
// ("**1. Intro**", "$- 1$ is odd") gets its marker escaped ("1\. Intro",
// "\- 1 is odd"), so the text parses back into the same paragraph.
func (b Block) PlainText() string {
	switch b.Kind {
	case BlockNumberedList, BlockBulletList:
		lines := make([]string, len(b.Items))
		for i, item := range b.Items {
			lines[i] = PlainText(item.Segments)
		}
		return strings.Join(lines, "\n")
	case BlockParagraph:
		return escapeListMarkers(PlainText(b.Segments))
	}
	return PlainText(b.Segments)
}

func escapeListMarkers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		// backslash before the dot of "N."
		if m := numberedLineRegex.FindStringSubmatchIndex(line); m != nil {
			lines[i] = line[:m[5]] + `\` + line[m[5]:]
			continue
		}
		// backslash before the bullet
		if m := bulletLineRegex.FindStringSubmatchIndex(line); m != nil {
			lines[i] = line[:m[4]] + `\` + line[m[4]:]
		}
	}
	return strings.Join(lines, "\n")
}
