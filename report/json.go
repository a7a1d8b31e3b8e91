package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"csscov/coverage"
)

type location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type statement struct {
	Start location `json:"start"`
	End   location `json:"end"`
}

type fileCoverage struct {
	ids        []int
	counts     map[int]int
	statements map[int]statement
}

func newFileCoverage(recs []coverage.Record) *fileCoverage {
	fc := &fileCoverage{
		counts:     make(map[int]int, len(recs)),
		statements: make(map[int]statement, len(recs)),
	}
	for _, rec := range recs {
		id := rec.StartLine
		if _, exists := fc.counts[id]; !exists {
			fc.ids = append(fc.ids, id)
		}
		// several records starting on the same line collapse, last one wins
		fc.counts[id] = rec.Count
		fc.statements[id] = statement{
			Start: location{Line: rec.StartLine, Column: max(rec.StartColumn-1, 0)},
			End:   location{Line: rec.EndLine, Column: max(rec.EndColumn-1, 0)},
		}
	}
	slices.Sort(fc.ids)
	return fc
}

func (fc *fileCoverage) writeCounts(buf *bytes.Buffer) {
	buf.WriteByte('{')
	for i, id := range fc.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"%d":%d`, id, fc.counts[id])
	}
	buf.WriteByte('}')
}

func (fc *fileCoverage) write(buf *bytes.Buffer) error {
	buf.WriteString(`{"l":`)
	fc.writeCounts(buf)
	buf.WriteString(`,"s":`)
	fc.writeCounts(buf)
	buf.WriteString(`,"statementMap":{`)
	for i, id := range fc.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := json.Marshal(fc.statements[id])
		if err != nil {
			return err
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(id)))
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteString("}}")
	return nil
}

// JSON renders model in Istanbul coverage.json format. Statement id is the
// start line of a record. Files keep model order, statements are ordered
// numerically. Lines in statementMap are 1-based, columns 0-based.
func JSON(m *coverage.Model, outputFile string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for name, recs := range m.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(destination(m, name, outputFile))
		if err != nil {
			return nil, fmt.Errorf("unable to encode file name '%s': %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := newFileCoverage(recs).write(&buf); err != nil {
			return nil, fmt.Errorf("unable to encode coverage for '%s': %w", name, err)
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, fmt.Errorf("unable to format coverage json: %w", err)
	}
	return out.Bytes(), nil
}
