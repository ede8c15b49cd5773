package format

import (
	"regexp"
	"strings"
)

// Scanners are pure: each takes the input and a start offset and returns the
// next match (absolute offsets) without keeping state between calls.

var (
	codeFenceRegex = regexp.MustCompile("```([a-zA-Z0-9]*)\n([\\s\\S]*?)```")
	blockMathRegex = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	boldRegex      = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

type match struct {
	Start int
	End   int
	Inner string
	Lang  string
}

// scanCodeFence finds the next fenced code region at or after from.
// The newline before the closing fence belongs to the fence, not the body.
func scanCodeFence(s string, from int) (match, bool) {
	loc := codeFenceRegex.FindStringSubmatchIndex(s[from:])
	if loc == nil {
		return match{}, false
	}
	body := s[from+loc[4] : from+loc[5]]
	return match{
		Start: from + loc[0],
		End:   from + loc[1],
		Lang:  s[from+loc[2] : from+loc[3]],
		Inner: strings.TrimSuffix(body, "\n"),
	}, true
}

func scanBlockMath(s string, from int) (match, bool) {
	return scanRegex(blockMathRegex, s, from)
}

func scanBold(s string, from int) (match, bool) {
	return scanRegex(boldRegex, s, from)
}

func scanRegex(re *regexp.Regexp, s string, from int) (match, bool) {
	loc := re.FindStringSubmatchIndex(s[from:])
	if loc == nil {
		return match{}, false
	}
	return match{
		Start: from + loc[0],
		End:   from + loc[1],
		Inner: s[from+loc[2] : from+loc[3]],
	}, true
}

// scanInlineMath finds the next single-dollar formula. A "$$" pair is never an
// inline opener; it is left for the caller as literal text.
func scanInlineMath(s string, from int) (match, bool) {
	i := from
	for i < len(s) {
		j := strings.IndexByte(s[i:], '$')
		if j < 0 {
			return match{}, false
		}
		j += i
		if j+1 < len(s) && s[j+1] == '$' {
			i = j + 2
			continue
		}
		k := strings.IndexByte(s[j+1:], '$')
		if k < 0 {
			return match{}, false
		}
		k += j + 1
		return match{Start: j, End: k + 1, Inner: s[j+1 : k]}, true
	}
	return match{}, false
}
