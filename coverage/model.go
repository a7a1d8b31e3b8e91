// Package coverage correlates selector match counts and declaration support
// with positions in the original stylesheet sources.
package coverage

import (
	"iter"
)

// Record is a covered span with its execution count. Count of 0 means
// selector matched nothing or declaration is not supported.
type Record struct {
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
	Count       int
}

// Lines returns number of lines the record spans.
func (r Record) Lines() int {
	return max(r.EndLine-r.StartLine+1, 1)
}

// Model maps original file names to records in order of discovery. File
// iteration order is insertion order. Model is not modified after Build
// returns it.
type Model struct {
	sourceMapPath string
	files         []string
	records       map[string][]Record
}

func newModel(sourceMapPath string) *Model {
	return &Model{
		sourceMapPath: sourceMapPath,
		records:       make(map[string][]Record),
	}
}

// add appends record to the file bucket creating bucket when necessary.
func (m *Model) add(file string, rec Record) {
	if _, exists := m.records[file]; !exists {
		m.files = append(m.files, file)
	}
	m.records[file] = append(m.records[file], rec)
}

// SourceMapPath returns location of the source map used to build the model,
// empty if none was used.
func (m *Model) SourceMapPath() string {
	return m.sourceMapPath
}

// HasSourceMap reports whether record file names came from a source map.
func (m *Model) HasSourceMap() bool {
	return len(m.sourceMapPath) > 0
}

// Len returns number of file buckets.
func (m *Model) Len() int {
	return len(m.files)
}

// FileNames returns file names in insertion order.
func (m *Model) FileNames() []string {
	names := make([]string, len(m.files))
	copy(names, m.files)
	return names
}

// Records returns copy of the records for the file.
func (m *Model) Records(file string) []Record {
	recs := m.records[file]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// All iterates over file buckets in insertion order. Records must not be
// modified.
func (m *Model) All() iter.Seq2[string, []Record] {
	return func(yield func(string, []Record) bool) {
		for _, name := range m.files {
			if !yield(name, m.records[name]) {
				return
			}
		}
	}
}
