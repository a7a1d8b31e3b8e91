package report

import (
	"strconv"
	"strings"

	"csscov/coverage"
)

// LCOV renders model as LCOV tracefile. Every line of every record span gets
// its own DA entry, records are neither merged nor sorted.
func LCOV(m *coverage.Model, outputFile string) string {
	var lines []string
	for name, recs := range m.All() {
		var hit, found int
		lines = append(lines, "SF:"+destination(m, name, outputFile))
		for _, rec := range recs {
			count := strconv.Itoa(rec.Count)
			for line := rec.StartLine; line <= rec.EndLine; line++ {
				lines = append(lines, "DA:"+strconv.Itoa(line)+","+count)
				if rec.Count > 0 {
					hit++
				}
				found++
			}
		}
		lines = append(lines,
			"LH:"+strconv.Itoa(hit),
			"LF:"+strconv.Itoa(found),
			"end_of_record",
		)
	}
	return strings.Join(lines, "\n")
}
