package css

import (
	"csscov/utils/debug"
)

// String returns human readable dump of the parsed stylesheet.
func (s *Stylesheet) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Stylesheet %q: %d rules (%d style)", s.Source, len(s.Rules), s.StyleRules())
	for i, r := range s.Rules {
		depth := r.Depth + 1
		if !r.IsStyle() {
			tw.Line(depth, "#%d @%s %s", i, r.Name, r.Span)
			if len(r.Prelude) > 0 {
				tw.TextBlock(depth+1, "prelude", r.Prelude)
			}
			continue
		}
		tw.Line(depth, "#%d style %s", i, r.Span)
		tw.List(depth+1, "selectors", r.Selectors)
		for _, d := range r.Declarations {
			tw.TextBlock(depth+1, d.Span.String(), d.Key())
		}
	}
	if len(s.Warnings) > 0 {
		tw.Line(0, "Warnings")
		for _, w := range s.Warnings {
			tw.Line(1, "%s", w)
		}
	}
	return tw.String()
}
