// Package position translates positions in generated stylesheet into
// positions in the original authoring sources.
package position

import (
	"fmt"

	"csscov/css"
)

// Outcome tells how (and whether) position was resolved.
type Outcome int

const (
	Unresolved       Outcome = iota // no original position could be found
	ResolvedAtOffset                // found at column-1 (0-based decoder column)
	ResolvedAtExact                 // found at unmodified column or no source map is used
)

func (o Outcome) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case ResolvedAtOffset:
		return "resolved-at-offset"
	case ResolvedAtExact:
		return "resolved-at-exact"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Original is a position in original source file. Line and Column are 1-based.
type Original struct {
	Source string
	Line   int
	Column int
}

// Result of a single resolution.
type Result struct {
	Original
	Outcome Outcome
}

// Ok returns true if position was resolved.
func (r Result) Ok() bool {
	return r.Outcome != Unresolved
}

// Mapper answers "original position for generated position" queries.
// genLine is 1-based, genColumn is 0-based, returned line is 1-based and
// column 0-based. *SourceMap satisfies it.
type Mapper interface {
	Source(genLine, genColumn int) (source, name string, line, column int, ok bool)
}

// Resolver maps generated positions to original ones. Zero value is not
// usable, use NewIdentity or New.
type Resolver struct {
	file    string
	mapPath string
	mapper  Mapper
}

// NewIdentity returns resolver which maps every position onto the stylesheet
// file itself.
func NewIdentity(cssFile string) *Resolver {
	return &Resolver{file: cssFile}
}

// New returns resolver backed by decoded source map located at mapPath.
func New(cssFile, mapPath string, m Mapper) *Resolver {
	return &Resolver{file: cssFile, mapPath: mapPath, mapper: m}
}

// Active returns true when source map is used for resolution.
func (r *Resolver) Active() bool {
	return r.mapper != nil
}

// MapPath returns location of the source map, empty when none is used.
func (r *Resolver) MapPath() string {
	return r.mapPath
}

// File returns path of the generated stylesheet.
func (r *Resolver) File() string {
	return r.file
}

// Resolve translates generated position. With active source map position is
// looked up at column-1 first and at the exact column second, since source
// maps are often off by one at rule boundaries.
func (r *Resolver) Resolve(pos css.Position) Result {
	if r.mapper == nil {
		return Result{
			Original: Original{Source: r.file, Line: pos.Line, Column: pos.Column},
			Outcome:  ResolvedAtExact,
		}
	}
	if orig, ok := r.lookup(pos.Line, pos.Column-1); ok {
		return Result{Original: orig, Outcome: ResolvedAtOffset}
	}
	if orig, ok := r.lookup(pos.Line, pos.Column); ok {
		return Result{Original: orig, Outcome: ResolvedAtExact}
	}
	return Result{Outcome: Unresolved}
}

func (r *Resolver) lookup(line, column int) (Original, bool) {
	if line < 1 || column < 0 {
		return Original{}, false
	}
	source, _, origLine, origColumn, ok := r.mapper.Source(line, column)
	if !ok || len(source) == 0 {
		return Original{}, false
	}
	return Original{Source: source, Line: origLine, Column: origColumn + 1}, true
}

// ResolveSpan resolves both ends of the span. Start must be resolvable, end
// which cannot be resolved is replaced with start.
func (r *Resolver) ResolveSpan(span css.Span) (start, end Result) {
	start = r.Resolve(span.Start)
	if !start.Ok() {
		return start, start
	}
	end = r.Resolve(span.End)
	if !end.Ok() || end.Source != start.Source {
		end = start
	}
	return start, end
}
