package coverage

import (
	"csscov/utils/debug"
)

// String returns human readable dump of the model.
func (m *Model) String() string {
	tw := debug.NewTreeWriter()
	if m.HasSourceMap() {
		tw.Line(0, "Coverage (source map %q)", m.sourceMapPath)
	} else {
		tw.Line(0, "Coverage")
	}
	for name, recs := range m.All() {
		tw.Line(1, "%s: %d records", name, len(recs))
		for _, r := range recs {
			tw.Line(2, "%d:%d-%d:%d = %d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn, r.Count)
		}
	}
	return tw.String()
}
