package css

import (
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
)

// Position is a location in parsed stylesheet text. Both Line and Column are
// 1-based, Column counts runes from the beginning of the line.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a source region. End points just past the last character.
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// RuleKind tells style rules from everything else.
type RuleKind int

const (
	RuleKindStyle RuleKind = iota // selector list followed by declaration block
	RuleKindAt                    // @-rule of any kind
)

func (k RuleKind) String() string {
	switch k {
	case RuleKindStyle:
		return "style"
	case RuleKindAt:
		return "at-rule"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Declaration is a single property declaration inside a style rule.
type Declaration struct {
	Property  string // lower-cased unless custom property (--name)
	Value     string // value text with whitespace collapsed, without !important
	Important bool
	Span      Span // from the first character of the property to the end of the value
}

// Key returns canonical textual form of the declaration. Declarations with the
// same key are considered identical regardless of where they appear.
func (d Declaration) Key() string {
	var sb strings.Builder
	sb.Grow(len(d.Property) + len(d.Value) + 12)
	sb.WriteString(d.Property)
	sb.WriteString(": ")
	sb.WriteString(d.Value)
	if d.Important {
		sb.WriteString(" !important")
	}
	return sb.String()
}

// IsCustom returns true for custom property declarations (--name: value).
func (d Declaration) IsCustom() bool {
	return strings.HasPrefix(d.Property, "--")
}

// Rule is a single rule of the stylesheet in document order. Rules nested
// into grouping @-rules (@media, @supports...) follow their parent.
type Rule struct {
	Kind         RuleKind
	Name         string        // @-rule name without "@", lower-cased
	Prelude      string        // @-rule prelude text
	Selectors    []string      // selector group of a style rule, may be empty
	Declarations []Declaration // declarations of a style rule
	Span         Span
	Depth        int // nesting level, 0 for top-level rules
}

// IsStyle returns true for style rules.
func (r Rule) IsStyle() bool {
	return r.Kind == RuleKindStyle
}

// Stylesheet is a parsed CSS file.
type Stylesheet struct {
	Source   string   // where the text came from, for diagnostics only
	Rules    []Rule   // all rules in document order
	Warnings []string // recoverable problems found while parsing
}

// StyleRules returns number of style rules in the stylesheet.
func (s *Stylesheet) StyleRules() int {
	var n int
	for i := range s.Rules {
		if s.Rules[i].IsStyle() {
			n++
		}
	}
	return n
}

// SelectorGroups returns selector groups of all style rules in document
// order, one entry per style rule.
func (s *Stylesheet) SelectorGroups() [][]string {
	groups := make([][]string, 0, len(s.Rules))
	for i := range s.Rules {
		if s.Rules[i].IsStyle() {
			groups = append(groups, s.Rules[i].Selectors)
		}
	}
	return groups
}

// SyntaxError is returned when stylesheet could not be parsed.
type SyntaxError struct {
	Source string
	Err    *parse.Error
}

func (e *SyntaxError) Error() string {
	if len(e.Source) == 0 {
		return fmt.Sprintf("css syntax error: %s @ %d:%d", e.Err.Message, e.Err.Line, e.Err.Column)
	}
	return fmt.Sprintf("css syntax error in %s: %s @ %d:%d", e.Source, e.Err.Message, e.Err.Line, e.Err.Column)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Line returns line the error was detected on.
func (e *SyntaxError) Line() int {
	return e.Err.Line
}

// Column returns column the error was detected on.
func (e *SyntaxError) Column() int {
	return e.Err.Column
}
