package format

import (
	"html"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	nethtml "golang.org/x/net/html"
)

// Preformat converts raw content into the lightweight markup consumed by the
// reveal tokenizer. Blocks are separated by <br/> so that line structure
// survives word splitting.
//
// Content with no formatting and no characters that need escaping is returned
// unchanged.
func Preformat(content string) string {
	doc := Parse(content)

	w := &markupWriter{}
	for i := range doc.Blocks {
		if i > 0 {
			w.tag(" <br/><br/> ")
		}
		w.block(&doc.Blocks[i])
	}

	if !w.tagged {
		if !strings.ContainsAny(content, "<>&") {
			return content
		}
		// Escaped text alone would be read as plain words
		return "<span>" + w.b.String() + "</span>"
	}
	return w.b.String()
}

type markupWriter struct {
	b      strings.Builder
	tagged bool
}

func (w *markupWriter) tag(s string) {
	w.tagged = true
	w.b.WriteString(s)
}

func (w *markupWriter) text(s string) {
	w.b.WriteString(html.EscapeString(s))
}

func (w *markupWriter) block(b *Block) {
	switch b.Kind {
	case BlockParagraph:
		if b.Indent > 0 {
			w.tag(`<span class="block" data-indent="` + strconv.Itoa(b.Indent) + `">`)
			w.segments(b.Segments)
			w.tag("</span>")
			return
		}
		w.segments(b.Segments)

	case BlockNumberedList, BlockBulletList:
		for i, item := range b.Items {
			if i > 0 {
				w.tag(" <br/> ")
			}
			w.tag(`<span class="block"`)
			if item.Indent > 0 {
				w.tag(` data-indent="` + strconv.Itoa(item.Indent) + `"`)
			}
			w.tag(">")
			if b.Kind == BlockNumberedList {
				w.tag("<strong>")
				w.text(item.Marker + ".")
				w.tag("</strong> ")
			} else {
				w.text("• ")
			}
			w.segments(item.Segments)
			w.tag("</span>")
		}

	case BlockCode:
		seg := b.Segments[0]
		w.tag(`<pre data-lang="` + html.EscapeString(seg.Lang) + `">`)
		w.text(seg.Text)
		w.tag("</pre>")

	case BlockMath:
		w.math(b.Segments[0], "math-block")
	}
}

func (w *markupWriter) segments(segs []Segment) {
	for _, seg := range segs {
		switch seg.Kind {
		case SegmentText:
			lines := strings.Split(seg.Text, "\n")
			for i, line := range lines {
				if i > 0 {
					w.tag(" <br/> ")
				}
				w.text(line)
			}
		case SegmentBold:
			w.tag("<strong>")
			w.segments(seg.Children)
			w.tag("</strong>")
		case SegmentInlineMath:
			w.math(seg, "math-inline")
		case SegmentBlockMath:
			w.math(seg, "math-block")
		}
	}
}

func (w *markupWriter) math(seg Segment, class string) {
	w.tag(`<span class="` + class + `" data-formula="` + html.EscapeString(seg.Text) + `">`)
	w.text(strings.ReplaceAll(seg.Source, "\n", " "))
	w.tag("</span>")
}

// MarkupUnit is one reveal unit handed to RenderMarkup.
// Progress is the unit's transition progress in [0,1].
type MarkupUnit struct {
	Markup   string
	Progress float64
}

// RenderMarkup converts revealed markup units to terminal text, wrapped to
// width. Rendering stops at the first unit that has not started; units still
// transitioning render faint.
func RenderMarkup(units []MarkupUnit, width int) string {
	var atoms []atom
	for _, u := range units {
		if u.Progress <= 0 {
			break
		}
		atoms = appendMarkupAtoms(atoms, u.Markup, u.Progress < 1)
	}
	if len(atoms) == 0 {
		return ""
	}
	return strings.Join(wrapAtoms(atoms, width), "\n")
}

type markupState struct {
	bold   int
	math   int
	indent int
}

func appendMarkupAtoms(out []atom, markup string, faint bool) []atom {
	z := nethtml.NewTokenizer(strings.NewReader(markup))
	var st markupState
	var stack []markupState

	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			return out

		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "br":
				out = append(out, atom{brk: true})
				continue
			case "pre":
				out = appendPre(out, z, attr(tok, "data-lang"))
				continue
			}
			if tt == nethtml.SelfClosingTagToken {
				continue
			}
			stack = append(stack, st)
			switch tok.Data {
			case "strong", "b":
				st.bold++
			case "span":
				switch attr(tok, "class") {
				case "math-inline", "math-block":
					st.math++
				}
				if n, err := strconv.Atoi(attr(tok, "data-indent")); err == nil {
					st.indent = n
				}
			}

		case nethtml.EndTagToken:
			if len(stack) > 0 {
				st = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}

		case nethtml.TextToken:
			text := string(z.Text())
			for _, word := range strings.Fields(text) {
				out = append(out, atom{
					text:   styleMarkupWord(word, st, faint),
					width:  runewidth.StringWidth(word),
					space:  true,
					indent: st.indent,
				})
			}
		}
	}
}

func appendPre(out []atom, z *nethtml.Tokenizer, lang string) []atom {
	var body strings.Builder
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			break
		}
		if tt == nethtml.EndTagToken {
			if name, _ := z.TagName(); string(name) == "pre" {
				break
			}
		}
		if tt == nethtml.TextToken {
			body.Write(z.Text())
		}
	}

	for i, line := range codeFrame(lang, body.String(), 0) {
		if i > 0 {
			out = append(out, atom{brk: true})
		}
		out = append(out, atom{text: line})
	}
	return out
}

func styleMarkupWord(word string, st markupState, faint bool) string {
	style := textStyle
	switch {
	case st.math > 0:
		style = mathStyle
	case st.bold > 0:
		style = boldStyle
	}
	if faint {
		style = style.Inherit(faintStyle)
	}
	return style.Render(word)
}

func attr(tok nethtml.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
