package css

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// @-rules whose blocks contain rules rather than declarations. Everything else
// with a block (@font-face, @page, @keyframes...) is treated as opaque.
var groupingAtRules = map[string]bool{
	"media":          true,
	"supports":       true,
	"document":       true,
	"-moz-document":  true,
	"layer":          true,
	"container":      true,
	"scope":          true,
	"starting-style": true,
}

// Parser parses CSS stylesheets keeping positions of rules and declarations.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for
// diagnostics).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Rules:    make([]Rule, 0),
		Warnings: make([]string, 0),
	}
	if len(source) > 0 {
		sheet.Source = source[0]
	}
	p.log.Debug("Parsing CSS", zap.String("source", sheet.Source), zap.Int("bytes", len(data)))

	toks, err := tokenize(data)
	if err != nil {
		return nil, &SyntaxError{Source: sheet.Source, Err: err}
	}

	st := &state{
		log:   p.log,
		data:  data,
		toks:  toks,
		lines: newLineIndex(data),
		sheet: sheet,
	}
	if _, err := st.parseRules(0, false); err != nil {
		var perr *parse.Error
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Source: sheet.Source, Err: perr}
		}
		return nil, err
	}

	p.log.Debug("Parsed CSS",
		zap.String("source", sheet.Source),
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("style rules", sheet.StyleRules()),
		zap.Int("warnings", len(sheet.Warnings)))
	return sheet, nil
}

type token struct {
	tt     css.TokenType
	data   string
	offset int
}

// tokenize splits input into tokens. Lexer hands out every input byte so
// offsets are accumulated from token lengths.
func tokenize(data []byte) ([]token, *parse.Error) {
	l := css.NewLexer(parse.NewInputBytes(data))
	toks := make([]token, 0, len(data)/4)
	offset := 0
	for {
		tt, text := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, parse.NewError(bytes.NewReader(data), offset, "%v", err)
			}
			return toks, nil
		case css.BadStringToken:
			return nil, parse.NewError(bytes.NewReader(data), offset, "unterminated string")
		case css.BadURLToken:
			return nil, parse.NewError(bytes.NewReader(data), offset, "malformed url")
		}
		toks = append(toks, token{tt: tt, data: string(text), offset: offset})
		offset += len(text)
	}
}

// lineIndex converts byte offsets to line/column positions.
type lineIndex struct {
	data   []byte
	starts []int
}

func newLineIndex(data []byte) lineIndex {
	starts := []int{0}
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n', '\f':
			starts = append(starts, i+1)
		}
	}
	return lineIndex{data: data, starts: starts}
}

func (li lineIndex) position(offset int) Position {
	offset = min(max(offset, 0), len(li.data))
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{
		Line:   line + 1,
		Column: utf8.RuneCount(li.data[li.starts[line]:offset]) + 1,
	}
}

type state struct {
	log   *zap.Logger
	data  []byte
	toks  []token
	pos   int
	lines lineIndex
	sheet *Stylesheet
}

func (st *state) eof() bool {
	return st.pos >= len(st.toks)
}

// peek returns current token, at the end of input ErrorToken positioned past
// the last byte is returned.
func (st *state) peek() token {
	if st.eof() {
		return token{tt: css.ErrorToken, offset: len(st.data)}
	}
	return st.toks[st.pos]
}

func (st *state) next() token {
	t := st.peek()
	if !st.eof() {
		st.pos++
	}
	return t
}

func (st *state) errorAt(offset int, format string, args ...any) error {
	return parse.NewError(bytes.NewReader(st.data), offset, format, args...)
}

func (st *state) warn(offset int, msg string, fields ...zap.Field) {
	pos := st.lines.position(offset)
	st.sheet.Warnings = append(st.sheet.Warnings, pos.String()+": "+msg)
	st.log.Debug(msg, append(fields, zap.Stringer("at", pos))...)
}

func isTrivia(tt css.TokenType) bool {
	return tt == css.WhitespaceToken || tt == css.CommentToken
}

func (st *state) skipTrivia(topLevel bool) {
	for !st.eof() {
		tt := st.peek().tt
		if isTrivia(tt) || (topLevel && (tt == css.CDOToken || tt == css.CDCToken)) {
			st.pos++
			continue
		}
		return
	}
}

// depthDelta reports how token changes block nesting.
func depthDelta(tt css.TokenType) int {
	switch tt {
	case css.LeftBraceToken, css.LeftBracketToken, css.LeftParenthesisToken, css.FunctionToken:
		return 1
	case css.RightBraceToken, css.RightBracketToken, css.RightParenthesisToken:
		return -1
	}
	return 0
}

// parseRules parses list of rules until end of input (top level) or until
// closing brace of the enclosing block (nested). Returns offset just past
// the end of the list.
func (st *state) parseRules(depth int, nested bool) (int, error) {
	for {
		st.skipTrivia(!nested)
		t := st.peek()
		switch t.tt {
		case css.ErrorToken:
			if nested {
				return 0, st.errorAt(t.offset, "unexpected end of input, '}' is expected")
			}
			return t.offset, nil
		case css.RightBraceToken:
			st.next()
			if nested {
				return t.offset + 1, nil
			}
			st.warn(t.offset, "Ignoring unbalanced '}'")
		case css.AtKeywordToken:
			if err := st.parseAtRule(depth); err != nil {
				return 0, err
			}
		default:
			if err := st.parseStyleRule(depth); err != nil {
				return 0, err
			}
		}
	}
}

// collectPrelude gathers tokens up to a top-level '{' (consumed), ';' when
// allowed (consumed) or '}' (not consumed). Returned token is the terminator,
// ErrorToken at the end of input.
func (st *state) collectPrelude(semicolon bool) ([]token, token) {
	var (
		toks  []token
		depth int
	)
	for {
		t := st.peek()
		if t.tt == css.ErrorToken {
			return toks, t
		}
		if depth == 0 {
			switch {
			case t.tt == css.LeftBraceToken, semicolon && t.tt == css.SemicolonToken:
				st.next()
				return toks, t
			case t.tt == css.RightBraceToken:
				return toks, t
			}
		}
		depth = max(depth+depthDelta(t.tt), 0)
		toks = append(toks, st.next())
	}
}

// skipBlock consumes everything up to and including the brace closing
// already opened block. Returns offset past the closing brace.
func (st *state) skipBlock() (int, error) {
	depth := 1
	for {
		t := st.next()
		switch t.tt {
		case css.ErrorToken:
			return 0, st.errorAt(t.offset, "unexpected end of input, '}' is expected")
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			if depth--; depth == 0 {
				return t.offset + 1, nil
			}
		}
	}
}

func (st *state) parseAtRule(depth int) error {
	kw := st.next()
	name := strings.ToLower(strings.TrimPrefix(kw.data, "@"))

	prelude, term := st.collectPrelude(true)

	idx := len(st.sheet.Rules)
	st.sheet.Rules = append(st.sheet.Rules, Rule{
		Kind:    RuleKindAt,
		Name:    name,
		Prelude: joinTokens(prelude),
		Span:    Span{Start: st.lines.position(kw.offset)},
		Depth:   depth,
	})

	var (
		end int
		err error
	)
	switch term.tt {
	case css.SemicolonToken:
		end = term.offset + 1
	case css.LeftBraceToken:
		if groupingAtRules[name] {
			end, err = st.parseRules(depth+1, true)
		} else {
			end, err = st.skipBlock()
		}
		if err != nil {
			return err
		}
	default:
		// no block and no semicolon, ends with enclosing block or input
		end = lastEnd(prelude, kw)
	}
	st.sheet.Rules[idx].Span.End = st.lines.position(end)
	st.log.Debug("Parsed @-rule", zap.String("name", name), zap.Stringer("span", st.sheet.Rules[idx].Span))
	return nil
}

func (st *state) parseStyleRule(depth int) error {
	start := st.peek()

	prelude, term := st.collectPrelude(false)
	switch term.tt {
	case css.ErrorToken:
		return st.errorAt(term.offset, "unexpected end of input, '{' is expected")
	case css.RightBraceToken:
		// rule without block inside of a grouping @-rule
		st.warn(start.offset, "Ignoring rule without declaration block", zap.String("prelude", joinTokens(prelude)))
		return nil
	}

	rule := Rule{
		Kind:      RuleKindStyle,
		Selectors: splitSelectors(prelude),
		Depth:     depth,
	}
	if len(rule.Selectors) == 0 {
		st.warn(start.offset, "Style rule has no selectors")
	}

	decls, end, err := st.parseDeclarations()
	if err != nil {
		return err
	}
	rule.Declarations = decls
	rule.Span = Span{Start: st.lines.position(start.offset), End: st.lines.position(end)}
	st.sheet.Rules = append(st.sheet.Rules, rule)
	return nil
}

// parseDeclarations parses declaration block after its opening brace.
// Returns offset past the closing brace.
func (st *state) parseDeclarations() ([]Declaration, int, error) {
	var decls []Declaration
	for {
		st.skipTrivia(false)
		t := st.peek()
		switch t.tt {
		case css.ErrorToken:
			return nil, 0, st.errorAt(t.offset, "unexpected end of input, '}' is expected")
		case css.RightBraceToken:
			st.next()
			return decls, t.offset + 1, nil
		case css.SemicolonToken:
			st.next()
		case css.IdentToken, css.CustomPropertyNameToken:
			decl, ok, err := st.parseDeclaration()
			if err != nil {
				return nil, 0, err
			}
			if ok {
				decls = append(decls, decl)
			}
		default:
			st.warn(t.offset, "Ignoring unexpected content in declaration block", zap.String("token", t.data))
			if err := st.skipDeclaration(); err != nil {
				return nil, 0, err
			}
		}
	}
}

// skipDeclaration drops everything up to the next top-level ';' (consumed)
// or '}' (not consumed). Nested blocks are skipped whole.
func (st *state) skipDeclaration() error {
	var depth int
	for {
		t := st.peek()
		switch {
		case t.tt == css.ErrorToken:
			return st.errorAt(t.offset, "unexpected end of input, '}' is expected")
		case depth == 0 && t.tt == css.SemicolonToken:
			st.next()
			return nil
		case depth == 0 && t.tt == css.RightBraceToken:
			return nil
		case depth == 0 && t.tt == css.LeftBraceToken:
			st.next()
			_, err := st.skipBlock()
			return err
		}
		depth = max(depth+depthDelta(t.tt), 0)
		st.next()
	}
}

func (st *state) parseDeclaration() (Declaration, bool, error) {
	name := st.next()
	st.skipTrivia(false)
	if st.peek().tt != css.ColonToken {
		st.warn(name.offset, "Ignoring declaration without ':'", zap.String("property", name.data))
		return Declaration{}, false, st.skipDeclaration()
	}
	st.next()

	var (
		value []token
		depth int
	)
loop:
	for {
		t := st.peek()
		switch {
		case t.tt == css.ErrorToken:
			return Declaration{}, false, st.errorAt(t.offset, "unexpected end of input, '}' is expected")
		case depth == 0 && t.tt == css.SemicolonToken:
			st.next()
			break loop
		case depth == 0 && t.tt == css.RightBraceToken:
			break loop
		}
		depth = max(depth+depthDelta(t.tt), 0)
		value = append(value, st.next())
	}

	value = trimTrivia(value)
	end := lastEnd(value, name)
	value, important := cutImportant(value)

	decl := Declaration{
		Property:  name.data,
		Value:     joinTokens(value),
		Important: important,
		Span:      Span{Start: st.lines.position(name.offset), End: st.lines.position(end)},
	}
	if !decl.IsCustom() {
		decl.Property = strings.ToLower(decl.Property)
	}
	if len(decl.Value) == 0 && !decl.IsCustom() {
		st.warn(name.offset, "Declaration has empty value", zap.String("property", decl.Property))
	}
	return decl, true, nil
}

// lastEnd returns offset past the last token of the list or past fallback
// token when list is empty.
func lastEnd(toks []token, fallback token) int {
	for i := len(toks) - 1; i >= 0; i-- {
		if !isTrivia(toks[i].tt) {
			return toks[i].offset + len(toks[i].data)
		}
	}
	return fallback.offset + len(fallback.data)
}

func trimTrivia(toks []token) []token {
	for len(toks) > 0 && isTrivia(toks[0].tt) {
		toks = toks[1:]
	}
	for len(toks) > 0 && isTrivia(toks[len(toks)-1].tt) {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// cutImportant removes trailing "!important" from trimmed value tokens.
func cutImportant(toks []token) ([]token, bool) {
	n := len(toks)
	if n < 2 || toks[n-1].tt != css.IdentToken || !strings.EqualFold(toks[n-1].data, "important") {
		return toks, false
	}
	rest := trimTrivia(toks[:n-1])
	if len(rest) == 0 || rest[len(rest)-1].tt != css.DelimToken || rest[len(rest)-1].data != "!" {
		return toks, false
	}
	return trimTrivia(rest[:len(rest)-1]), true
}

// joinTokens returns text of the tokens with comments dropped and runs of
// whitespace collapsed into single space.
func joinTokens(toks []token) string {
	var (
		sb      strings.Builder
		pending bool
	)
	for _, t := range toks {
		if isTrivia(t.tt) {
			pending = sb.Len() > 0
			continue
		}
		if pending {
			sb.WriteByte(' ')
			pending = false
		}
		sb.WriteString(t.data)
	}
	return sb.String()
}

// splitSelectors splits selector list on top-level commas.
func splitSelectors(toks []token) []string {
	var (
		selectors []string
		depth     int
		from      int
	)
	flush := func(to int) {
		if s := joinTokens(toks[from:to]); len(s) > 0 {
			selectors = append(selectors, s)
		}
	}
	for i, t := range toks {
		if depth == 0 && t.tt == css.CommaToken {
			flush(i)
			from = i + 1
			continue
		}
		depth = max(depth+depthDelta(t.tt), 0)
	}
	flush(len(toks))
	return selectors
}
