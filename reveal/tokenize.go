package reveal

import (
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
)

// Unit is the smallest piece revealed at once: one word, one tag-only
// element or one preformatted block. Markup is always self-contained: every
// tag open around the unit is repeated inside it.
type Unit struct {
	Text   string
	Markup string
}

// HasMarkup reports whether s should be tokenized as markup
func HasMarkup(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}

// Tokenize splits content into reveal units, choosing plain or markup mode
func Tokenize(content string) []Unit {
	if HasMarkup(content) {
		return tokenizeMarkup(content)
	}
	return tokenizePlain(content)
}

func tokenizePlain(content string) []Unit {
	words := strings.Fields(content)
	units := make([]Unit, 0, len(words))
	for _, w := range words {
		units = append(units, Unit{Text: w, Markup: html.EscapeString(w)})
	}
	return units
}

type openTag struct {
	name  string
	open  string
	units int
}

var voidElements = map[string]bool{
	"br":  true,
	"hr":  true,
	"img": true,
	"wbr": true,
}

func tokenizeMarkup(content string) []Unit {
	z := nethtml.NewTokenizer(strings.NewReader(content))
	var stack []openTag
	var units []Unit

	emit := func(inner, text string) {
		units = append(units, wrap(stack, inner, text))
		for i := range stack {
			stack[i].units++
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			// EOF or malformed tail; unclosed tags are simply dropped
			return units

		case nethtml.TextToken:
			for _, word := range strings.Fields(string(z.Text())) {
				emit(html.EscapeString(word), word)
			}

		case nethtml.SelfClosingTagToken:
			emit(z.Token().String(), "")

		case nethtml.StartTagToken:
			tok := z.Token()
			if voidElements[tok.Data] {
				emit(tok.String(), "")
				continue
			}
			if tok.Data == "pre" {
				inner, text := readPre(z)
				emit(tok.String()+inner+"</pre>", text)
				continue
			}
			stack = append(stack, openTag{name: tok.Data, open: tok.String()})

		case nethtml.EndTagToken:
			name, _ := z.TagName()
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == string(name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			closed := stack[idx]
			stack = stack[:idx]
			if closed.units == 0 {
				// An element with no words still occupies one unit
				emit(closed.open+"</"+closed.name+">", "")
			}
		}
	}
}

// readPre consumes a <pre> body up to its end tag, returning the raw markup
// and the decoded text
func readPre(z *nethtml.Tokenizer) (string, string) {
	var raw, text strings.Builder
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
		raw.Write(z.Raw())
		if tt == nethtml.TextToken {
			text.Write(z.Text())
		}
	}
	return raw.String(), text.String()
}

func wrap(stack []openTag, inner, text string) Unit {
	if len(stack) == 0 {
		return Unit{Text: text, Markup: inner}
	}

	var b strings.Builder
	for _, t := range stack {
		b.WriteString(t.open)
	}
	b.WriteString(inner)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteString("</" + stack[i].name + ">")
	}
	return Unit{Text: text, Markup: b.String()}
}
