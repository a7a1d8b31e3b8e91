package coverage

import (
	"fmt"

	"csscov/css"
)

// IntegrityError is returned when evaluator produced different number of
// results than there are style rules.
type IntegrityError struct {
	Expected int
	Actual   int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("match count lengths do not match, expected %d, actual %d", e.Expected, e.Actual)
}

// UnresolvedSourceMapError is returned when start of a rule or declaration
// cannot be found in the source map, which means map is stale or does not
// belong to the stylesheet.
type UnresolvedSourceMapError struct {
	SourceMap string
	Span      css.Span
}

func (e *UnresolvedSourceMapError) Error() string {
	return fmt.Sprintf("position %s (css span %s) not found in source map '%s', source map might be invalid, try regenerating it",
		e.Span.Start, e.Span, e.SourceMap)
}
