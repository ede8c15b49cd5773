package format

import (
	"regexp"
	"strings"
)

var (
	numberedLineRegex = regexp.MustCompile(`^(\s*)(\d+)\.\s+(.+)$`)
	bulletLineRegex   = regexp.MustCompile(`^(\s*)([-*])\s+(.+)$`)
)

// Parse converts a raw response into ordered blocks.
//
// Fenced code is extracted first and never re-scanned, then display math,
// then the remaining text is classified line by line. Unterminated fences and
// delimiters stay literal.
func Parse(raw string) Document {
	var doc Document
	if strings.TrimSpace(raw) == "" {
		return doc
	}

	pos := 0
	for {
		m, ok := scanCodeFence(raw, pos)
		if !ok {
			break
		}
		doc.Blocks = appendTextBlocks(doc.Blocks, raw[pos:m.Start])
		doc.Blocks = append(doc.Blocks, Block{
			Kind: BlockCode,
			Segments: []Segment{{
				Kind:   SegmentCode,
				Text:   m.Inner,
				Lang:   m.Lang,
				Source: raw[m.Start:m.End],
			}},
		})
		pos = m.End
	}
	doc.Blocks = appendTextBlocks(doc.Blocks, raw[pos:])

	return doc
}

func appendTextBlocks(blocks []Block, text string) []Block {
	pos := 0
	for {
		m, ok := scanBlockMath(text, pos)
		if !ok {
			break
		}
		blocks = append(blocks, ParseBlocks(text[pos:m.Start])...)
		blocks = append(blocks, Block{
			Kind: BlockMath,
			Segments: []Segment{{
				Kind:   SegmentBlockMath,
				Text:   m.Inner,
				Source: text[m.Start:m.End],
			}},
		})
		pos = m.End
	}
	return append(blocks, ParseBlocks(text[pos:])...)
}

// ParseBlocks classifies plain text (no code fences, no display math) into
// paragraph and list blocks and resolves their inline segments.
//
// Adjacent list lines of the same kind merge into one flat list. Blank lines
// end a paragraph but do not end a list.
func ParseBlocks(text string) []Block {
	var blocks []Block
	open := -1

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if m := numberedLineRegex.FindStringSubmatch(line); m != nil {
			open = appendItem(&blocks, open, BlockNumberedList, ListItem{
				Marker: m[2],
				Text:   m[3],
				Indent: indentLevel(m[1]),
			})
			continue
		}

		if m := bulletLineRegex.FindStringSubmatch(line); m != nil {
			open = appendItem(&blocks, open, BlockBulletList, ListItem{
				Marker: m[2],
				Text:   m[3],
				Indent: indentLevel(m[1]),
			})
			continue
		}

		if strings.TrimSpace(line) == "" {
			if open >= 0 && blocks[open].Kind == BlockParagraph {
				open = -1
			}
			continue
		}

		if open >= 0 && blocks[open].Kind == BlockParagraph {
			blocks[open].Text += "\n" + line
			continue
		}

		blocks = append(blocks, Block{
			Kind:   BlockParagraph,
			Text:   line,
			Indent: indentLevel(leadingSpace(line)),
		})
		open = len(blocks) - 1
	}

	for i := range blocks {
		b := &blocks[i]
		if b.Kind == BlockParagraph {
			b.Segments = ParseInline(b.Text)
			continue
		}
		for j := range b.Items {
			b.Items[j].Segments = ParseInline(b.Items[j].Text)
		}
	}

	return blocks
}

func appendItem(blocks *[]Block, open int, kind BlockKind, item ListItem) int {
	if open < 0 || (*blocks)[open].Kind != kind {
		*blocks = append(*blocks, Block{Kind: kind})
		open = len(*blocks) - 1
	}
	(*blocks)[open].Items = append((*blocks)[open].Items, item)
	return open
}

// ParseInline splits text into plain, bold and inline-math segments.
// Bold content is re-scanned for inline math.
func ParseInline(text string) []Segment {
	if text == "" {
		return nil
	}

	var segs []Segment
	pos := 0
	for {
		m, ok := scanBold(text, pos)
		if !ok {
			break
		}
		segs = append(segs, parseMath(text[pos:m.Start])...)
		segs = append(segs, Segment{
			Kind:     SegmentBold,
			Source:   text[m.Start:m.End],
			Children: parseMath(m.Inner),
		})
		pos = m.End
	}
	return append(segs, parseMath(text[pos:])...)
}

func parseMath(text string) []Segment {
	if text == "" {
		return nil
	}

	var segs []Segment
	pos := 0
	for {
		m, ok := scanInlineMath(text, pos)
		if !ok {
			break
		}
		if m.Start > pos {
			segs = append(segs, Segment{Kind: SegmentText, Text: text[pos:m.Start]})
		}
		segs = append(segs, Segment{
			Kind:   SegmentInlineMath,
			Text:   m.Inner,
			Source: text[m.Start:m.End],
		})
		pos = m.End
	}
	if pos < len(text) {
		segs = append(segs, Segment{Kind: SegmentText, Text: text[pos:]})
	}
	return segs
}

// Raw reassembles segments into the exact text they were parsed from
func Raw(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Source != "" {
			b.WriteString(s.Source)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// indentLevel counts two columns per level; a tab counts as one level
func indentLevel(ws string) int {
	cols := 0
	for _, r := range ws {
		if r == '\t' {
			cols += 2
			continue
		}
		cols++
	}
	return cols / 2
}
