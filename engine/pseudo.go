package engine

import (
	"strings"
)

// DefaultIgnoredPseudos are print and paged media pseudo-classes and elements
// which cannot be matched against static document.
var DefaultIgnoredPseudos = []string{
	"deferred", "pass", "match", "after", "before", "outside", "link", "footnote-call", "footnote-marker",
}

type pseudoStripper map[string]struct{}

func newPseudoStripper(names []string) pseudoStripper {
	ps := make(pseudoStripper, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimLeft(strings.TrimSpace(name), ":"))
		if len(name) > 0 {
			ps[name] = struct{}{}
		}
	}
	return ps
}

// strip removes every occurrence of ignored pseudo-classes and elements
// (":name", "::name" and functional "::name(...)") from selector.
func (ps pseudoStripper) strip(sel string) string {
	if len(ps) == 0 || strings.IndexByte(sel, ':') < 0 {
		return strings.TrimSpace(sel)
	}

	var sb strings.Builder
	sb.Grow(len(sel))
	for i := 0; i < len(sel); {
		c := sel[i]
		switch {
		case c == '\\' && i+1 < len(sel):
			sb.WriteString(sel[i : i+2])
			i += 2
			continue
		case c == '"' || c == '\'':
			end := quoteEnd(sel, i)
			sb.WriteString(sel[i:end])
			i = end
			continue
		case c != ':':
			sb.WriteByte(c)
			i++
			continue
		}

		start := i
		i++
		if i < len(sel) && sel[i] == ':' {
			i++
		}
		nameStart := i
		for i < len(sel) && isNameByte(sel[i]) {
			i++
		}
		name := strings.ToLower(sel[nameStart:i])
		if _, ignored := ps[name]; !ignored || len(name) == 0 {
			sb.WriteString(sel[start:i])
			continue
		}
		if i < len(sel) && sel[i] == '(' {
			i = parenEnd(sel, i)
		}
	}
	return strings.TrimSpace(sb.String())
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// quoteEnd returns index just past the string literal starting at i.
func quoteEnd(s string, i int) int {
	q := s[i]
	for i++; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i + 1
		}
	}
	return len(s)
}

// parenEnd returns index just past the parenthesized group starting at i.
func parenEnd(s string, i int) int {
	var depth int
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"', '\'':
			i = quoteEnd(s, i) - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}
